package rtc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dkeye/duet/internal/core"
	"github.com/dkeye/duet/internal/domain"
)

var _ core.Directory = (*Client)(nil)

// Lookup asks the relay for the snapshot a connected user presented.
func (c *Client) Lookup(ctx context.Context, id domain.UserID) (domain.Participant, error) {
	var p domain.Participant
	status, ae, err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(string(id)), nil, &p)
	switch {
	case err != nil:
		return domain.Participant{}, err
	case status != http.StatusOK:
		return domain.Participant{}, unexpected("lookup", status, ae)
	}
	return domain.NewParticipant(p.ID, p.DisplayName, p.AvatarRef)
}
