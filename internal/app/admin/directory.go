package admin

import (
	"context"
	"net/http"

	"github.com/fardannozami/crimewatch/internal/domain"
	"github.com/fardannozami/crimewatch/internal/infra/api"
)

type Session interface {
	Current() domain.Session
}

// Directory lists accounts for admins. The role claim is only a hint; the
// server still decides.
type Directory struct {
	api  domain.AdminAPI
	sess Session
}

func NewDirectory(adminAPI domain.AdminAPI, sess Session) *Directory {
	return &Directory{api: adminAPI, sess: sess}
}

func (d *Directory) Users(ctx context.Context) ([]domain.Member, error) {
	cur := d.sess.Current()
	if !cur.Authenticated() {
		return nil, domain.NewError(domain.KindAuth, "Please login to list users", nil)
	}
	if !cur.Identity.IsAdmin() {
		return nil, domain.NewError(domain.KindAuth, "Admin access required", nil)
	}

	users, err := d.api.Users(ctx)
	if err != nil {
		if api.StatusCode(err) == http.StatusForbidden {
			return nil, domain.NewError(domain.KindAuth, "Admin access required", err)
		}
		return nil, api.AsDomain(err, domain.KindLoad, "Failed to load users")
	}
	return users, nil
}
