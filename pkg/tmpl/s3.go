package tmpl

import (
	"context"
	"errors"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store loads templates from an S3 bucket. Keys are the template names
// under the configured prefix. Compiled templates are cached unless
// WithoutCache is set, so a bucket round trip happens once per name until
// Invalidate is called.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := tmpl.NewS3Store(s3.NewFromConfig(cfg), "my-bucket",
//	    tmpl.WithPrefix("templates/"))
//	def.Template = tmpl.Producer(ctx, store, "cards/user.html")
type S3Store struct {
	client *s3.Client
	bucket string
	cfg    storeConfig

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewS3Store returns a store reading from bucket with the given client.
func NewS3Store(client *s3.Client, bucket string, opts ...StoreOption) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		cfg:    newStoreConfig(opts),
		cache:  make(map[string]*template.Template),
	}
}

func (s *S3Store) key(name string) string {
	return s.cfg.prefix + name
}

// Load fetches, compiles and returns the named template. A missing key maps
// to ErrNotFound; other bucket failures come back wrapped as load errors.
func (s *S3Store) Load(ctx context.Context, name string) (*template.Template, error) {
	if s.cfg.cache {
		s.mu.RLock()
		t, ok := s.cache[name]
		s.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, &Error{Name: name, Op: "load", Err: ErrNotFound}
		}
		return nil, &Error{Name: name, Op: "load", Err: err}
	}
	defer out.Body.Close()

	src, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Name: name, Op: "load", Err: err}
	}

	t, err := s.cfg.newTemplate(name).Parse(string(src))
	if err != nil {
		return nil, &Error{Name: name, Op: "load", Err: err}
	}

	if s.cfg.cache {
		s.mu.Lock()
		s.cache[name] = t
		s.mu.Unlock()
	}
	return t, nil
}

// Exists reports whether the named template key is present in the bucket.
func (s *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, &Error{Name: name, Op: "load", Err: err}
	}
	return true, nil
}

// Invalidate drops the named template from the cache; an empty name drops
// everything.
func (s *S3Store) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		s.cache = make(map[string]*template.Template)
		return
	}
	delete(s.cache, name)
}

// List pages through the bucket and returns every template name under the
// prefix, with the prefix stripped.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.cfg.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &Error{Op: "load", Err: err}
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			names = append(names, strings.TrimPrefix(*obj.Key, s.cfg.prefix))
		}
	}
	return names, nil
}

// isS3NotFound matches the SDK's missing-key failures for both GetObject
// and HeadObject.
func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
