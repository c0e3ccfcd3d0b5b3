package drive

import (
	"regexp"
	"testing"

	"github.com/dalemusser/stratacloud/internal/testutil"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestShareFile(t *testing.T) {
	svc, owner := newTestService(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := mustUpload(t, svc, owner, nil, "shared.txt", "shared bytes")

	token, err := svc.ShareFile(ctx, asOwner(owner), f.ID)
	if err != nil {
		t.Fatalf("ShareFile() error = %v", err)
	}
	if !tokenPattern.MatchString(token) {
		t.Errorf("token = %q, want 32 lowercase hex chars", token)
	}

	t.Run("idempotent", func(t *testing.T) {
		again, err := svc.ShareFile(ctx, asOwner(owner), f.ID)
		if err != nil {
			t.Fatalf("ShareFile(again) error = %v", err)
		}
		if again != token {
			t.Errorf("second share token = %q, want unchanged %q", again, token)
		}
	})

	t.Run("resolves to the file", func(t *testing.T) {
		target, err := svc.Resolve(ctx, token)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if target.File == nil || target.File.ID != f.ID {
			t.Error("token should resolve to the shared file")
		}
	})

	t.Run("anonymous download counts", func(t *testing.T) {
		rc, meta, err := svc.OpenSharedFile(ctx, token)
		if err != nil {
			t.Fatalf("OpenSharedFile() error = %v", err)
		}
		if got := readAll(t, rc); got != "shared bytes" {
			t.Errorf("shared content = %q, want %q", got, "shared bytes")
		}
		if meta.ID != f.ID {
			t.Error("shared download returned the wrong file")
		}

		after, err := svc.GetFile(ctx, asOwner(owner), f.ID)
		if err != nil {
			t.Fatalf("GetFile() error = %v", err)
		}
		if after.DownloadCount != 1 {
			t.Errorf("download count = %d, want 1", after.DownloadCount)
		}
	})
}

func TestRevokeFileShare(t *testing.T) {
	svc, owner := newTestService(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := mustUpload(t, svc, owner, nil, "secret.txt", "secret")
	token, err := svc.ShareFile(ctx, asOwner(owner), f.ID)
	if err != nil {
		t.Fatalf("ShareFile() error = %v", err)
	}

	if err := svc.RevokeFileShare(ctx, asOwner(owner), f.ID); err != nil {
		t.Fatalf("RevokeFileShare() error = %v", err)
	}

	// Revoked token is indistinguishable from a never-issued one.
	if _, err := svc.Resolve(ctx, token); !IsKind(err, KindNotFound) {
		t.Errorf("Resolve(revoked) kind = %q, want %q", KindOf(err), KindNotFound)
	}

	t.Run("resharing issues a fresh token", func(t *testing.T) {
		again, err := svc.ShareFile(ctx, asOwner(owner), f.ID)
		if err != nil {
			t.Fatalf("ShareFile(after revoke) error = %v", err)
		}
		if again == token {
			t.Error("revoked token must not be reissued")
		}
	})
}

func TestShareFolder(t *testing.T) {
	svc, owner := newTestService(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreateFolder(t, svc, owner, "Photos", nil)
	mustUpload(t, svc, owner, &a.ID, "pic.jpg", "jpeg bytes")

	token, err := svc.ShareFolder(ctx, asOwner(owner), a.ID)
	if err != nil {
		t.Fatalf("ShareFolder() error = %v", err)
	}
	if !tokenPattern.MatchString(token) {
		t.Errorf("token = %q, want 32 lowercase hex chars", token)
	}

	t.Run("anonymous export", func(t *testing.T) {
		rc, filename, err := svc.ExportSharedFolder(ctx, token)
		if err != nil {
			t.Fatalf("ExportSharedFolder() error = %v", err)
		}
		if filename != "Photos.zip" {
			t.Errorf("filename = %q, want Photos.zip", filename)
		}
		zr := readZip(t, rc)
		if got := zipEntry(t, zr, "Photos/pic.jpg"); got != "jpeg bytes" {
			t.Errorf("Photos/pic.jpg = %q, want %q", got, "jpeg bytes")
		}
	})

	t.Run("file accessor rejects a folder token", func(t *testing.T) {
		_, _, err := svc.OpenSharedFile(ctx, token)
		if !IsKind(err, KindNotFound) {
			t.Errorf("OpenSharedFile(folder token) kind = %q, want %q", KindOf(err), KindNotFound)
		}
	})

	t.Run("revoke", func(t *testing.T) {
		if err := svc.RevokeFolderShare(ctx, asOwner(owner), a.ID); err != nil {
			t.Fatalf("RevokeFolderShare() error = %v", err)
		}
		if _, _, err := svc.ExportSharedFolder(ctx, token); !IsKind(err, KindNotFound) {
			t.Errorf("ExportSharedFolder(revoked) kind = %q, want %q", KindOf(err), KindNotFound)
		}
	})
}

func TestResolveUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := svc.Resolve(ctx, "00000000000000000000000000000000")
	if !IsKind(err, KindNotFound) {
		t.Errorf("Resolve(unknown) kind = %q, want %q", KindOf(err), KindNotFound)
	}
}

func TestShareForbiddenForOtherOwner(t *testing.T) {
	svc, owner := newTestService(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := mustUpload(t, svc, owner, nil, "mine.txt", "mine")
	other := newOwner(t, svc, "Other Owner", testQuota)

	if _, err := svc.ShareFile(ctx, asOwner(other), f.ID); !IsKind(err, KindForbidden) {
		t.Errorf("ShareFile(foreign) kind = %q, want %q", KindOf(err), KindForbidden)
	}
}
