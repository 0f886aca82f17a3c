// Package mailrelay implements the endpoint that receives a rendered
// settlement note and forwards it by email to the company.
//
// The endpoint accepts multipart/form-data with a "pdf" file part and an
// optional "meta" part holding the subscription fields as JSON. It responds
// with the JSON envelope of the handler package:
//
//	200 {"data":{"ok":true}}
//	400 {"error":{"code":"missing_document","message":"Ingen PDF mottagen"}}
//	400 {"error":{"code":"invalid_meta",...}}
//	500 {"error":{"code":"mail_provider_error","message":"<provider message>"}}
package mailrelay
