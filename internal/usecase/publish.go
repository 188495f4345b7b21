package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"splat-service/internal/domain"
)

// Publisher uploads encoded artifacts to object storage and mints
// time-limited access URLs. The URL is minted only after the upload is
// confirmed; if minting fails the object is removed so no reachable partial
// artifact survives.
type Publisher struct {
	store     domain.ObjectStore
	keyPrefix string
	expiry    time.Duration
}

func NewPublisher(store domain.ObjectStore, keyPrefix string, expiry time.Duration) *Publisher {
	return &Publisher{store: store, keyPrefix: keyPrefix, expiry: expiry}
}

// Publish uploads the blob under a collision-resistant key derived from the
// suggested name and returns the presigned artifact. Upload or presign errors
// surface as ErrPublishFailed; there are no in-core retries.
func (p *Publisher) Publish(ctx context.Context, blob []byte, suggestedName string) (*domain.PublishedArtifact, error) {
	key := p.objectKey(suggestedName)

	if err := p.store.Put(ctx, key, blob, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", domain.ErrPublishFailed, key, err)
	}

	url, expiresAt, err := p.store.PresignGet(ctx, key, p.expiry)
	if err != nil {
		// Uploaded but unsigned: delete so the object is not left
		// discoverable under a key we handed out nowhere.
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("orphaned object cleanup failed")
		}
		return nil, fmt.Errorf("%w: presign %s: %v", domain.ErrPublishFailed, key, err)
	}

	return &domain.PublishedArtifact{
		Key:       key,
		SizeBytes: int64(len(blob)),
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}

// objectKey builds "<prefix>/<stem>_<8 hex chars>.ply". The random suffix
// keeps concurrent uploads with the same suggested name from clobbering each
// other.
func (p *Publisher) objectKey(suggestedName string) string {
	stem := strings.TrimSuffix(filepath.Base(suggestedName), filepath.Ext(suggestedName))
	stem = sanitizeStem(stem)
	if stem == "" || stem == "." || stem == ".." {
		stem = "output"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%s_%s.ply", p.keyPrefix, stem, suffix)
}

func sanitizeStem(stem string) string {
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
