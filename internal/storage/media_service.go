package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"learnhub/api/internal/ids"
	"learnhub/api/internal/media"
	"learnhub/api/internal/models"
)

var (
	ErrTooLarge      = errors.New("media exceeds size limit")
	ErrForbiddenHost = errors.New("media host is not publicly routable")
)

// Objects is the subset of ObjectStore the media service needs.
type Objects interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// MediaService accepts a data URL, bare base64, or a remote http(s) URL,
// validates the image and stores it under folder.
type MediaService struct {
	objects  Objects
	http     *resty.Client
	maxBytes int64
	log      zerolog.Logger

	// permitPrivate turns off the dial guard for loopback test servers.
	permitPrivate bool
}

func NewMediaService(objects Objects, maxBytes int64, log zerolog.Logger) *MediaService {
	s := &MediaService{
		objects:  objects,
		maxBytes: maxBytes,
		log:      log,
	}

	// The guard runs on the resolved address, so redirects and DNS answers
	// pointing at internal networks are refused too.
	dialer := &net.Dialer{Timeout: 5 * time.Second, Control: s.guardDial}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}

	s.http = resty.New().
		SetTransport(transport).
		SetTimeout(15 * time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3)).
		SetHeader("Accept", "image/*")
	if maxBytes > 0 {
		s.http.SetResponseBodyLimit(int(maxBytes))
	}
	return s
}

func (s *MediaService) Upload(ctx context.Context, source, folder string) (models.Asset, error) {
	data, err := media.DecodeInline(source)
	if errors.Is(err, media.ErrNotInline) {
		data, err = s.fetch(ctx, strings.TrimSpace(source))
	}
	if err != nil {
		return models.Asset{}, err
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return models.Asset{}, ErrTooLarge
	}

	kind, data, err := media.Prepare(data)
	if err != nil {
		return models.Asset{}, err
	}

	key := path.Join(folder, ids.New()+kind.Extension())
	if err := s.objects.Put(ctx, key, data, kind.MIME); err != nil {
		return models.Asset{}, err
	}

	s.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("media uploaded")
	return models.Asset{ID: key, URL: s.objects.URL(key)}, nil
}

func (s *MediaService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.objects.Remove(ctx, id)
}

func (s *MediaService) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.http.R().SetContext(ctx).Get(url)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return nil, ErrTooLarge
	}
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func (s *MediaService) guardDial(_, address string, _ syscall.RawConn) error {
	if s.permitPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !publicIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, host)
	}
	return nil
}

func publicIP(ip net.IP) bool {
	return !ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast() &&
		!ip.IsUnspecified()
}
