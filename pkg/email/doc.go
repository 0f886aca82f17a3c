// Package email sends transactional mail through Postmark.
//
// Sender is the narrow interface the rest of the service depends on.
// NewPostmarkSender talks to the Postmark API; NewDevSender writes every
// message, including attachments, to a local directory so the delivery path
// can be exercised without credentials. New picks between them based on
// whether a server token is configured.
package email
