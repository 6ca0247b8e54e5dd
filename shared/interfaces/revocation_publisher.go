package interfaces

import "context"

// RevocationPublisher notifies sibling services that a user's session tokens
// are no longer valid (revoke, password change) so they can drop cached
// sessions. Publishing is fire-and-forget from the service's point of view.
type RevocationPublisher interface {
	PublishSessionRevoked(ctx context.Context, userName string) error
}
