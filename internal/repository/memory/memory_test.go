package memory

import (
	"testing"

	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository/repotest"
)

func TestMemoryRepositories(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Repositories {
		s := NewStore()
		return repotest.Repositories{
			Users:    s.Users(),
			Sessions: s.Sessions(),
			Teams:    s.Teams(),
			Okrs:     s.Okrs(),
			Roles:    s.Roles(),
		}
	})
}
