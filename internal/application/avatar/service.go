package avatar

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/go-rider-session/internal/application/safecall"
	"github.com/go-rider-session/internal/application/session"
	"github.com/go-rider-session/internal/domain"
)

// MaxSize is the largest accepted avatar, in bytes.
const MaxSize = 5 << 20

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// BlobStore is the remote blob store.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

type profileMerger interface {
	Merge(ctx context.Context, uid string, fields map[string]interface{}) error
}

type sessionView interface {
	State() session.State
	UpdateUser(u domain.ProfileUpdate)
}

type Service interface {
	Upload(ctx context.Context, filename string, data []byte) (string, domain.OpResult)
}

type service struct {
	blobs    BlobStore
	profiles profileMerger
	session  sessionView
	caller   *safecall.Caller
}

func NewService(blobs BlobStore, profiles profileMerger, sess sessionView, caller *safecall.Caller) Service {
	return &service{blobs: blobs, profiles: profiles, session: sess, caller: caller}
}

// Upload stores the image under the rider's folder, records its URL on the
// remote profile and then applies it locally. It returns the new URL.
func (s *service) Upload(ctx context.Context, filename string, data []byte) (string, domain.OpResult) {
	st := s.session.State()
	if !st.IsAuthenticated {
		return "", domain.OpResult{}
	}
	if len(data) == 0 {
		return "", domain.Fail("empty file")
	}
	if len(data) > MaxSize {
		return "", domain.Fail(fmt.Sprintf("file larger than %d bytes", MaxSize))
	}

	uid := st.Identity.UID
	key := path.Join("avatars", uid, sanitize(filename))
	up := safecall.Do(ctx, s.caller, "blob.upload", func(ctx context.Context) (string, error) {
		return s.blobs.Upload(ctx, key, data)
	}, "")
	if !up.Success {
		return "", domain.Fail(up.Message)
	}

	url := up.Data
	upd := domain.ProfileUpdate{Avatar: &url}
	merge := safecall.Exec(ctx, s.caller, "profile.merge", func(ctx context.Context) error {
		return s.profiles.Merge(ctx, uid, upd.Fields())
	})
	if !merge.Success {
		// drop the unreferenced object; safecall logs a failed delete
		safecall.Exec(ctx, s.caller, "blob.delete", func(ctx context.Context) error {
			return s.blobs.Delete(ctx, key)
		})
		return "", domain.Fail(merge.Message)
	}
	s.session.UpdateUser(upd)
	return url, domain.Ok("Avatar updated")
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "avatar"
	}
	return name
}
