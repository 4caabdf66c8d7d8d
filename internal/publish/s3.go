// Package publish copies run artifacts to S3-compatible object storage.
package publish

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const DefaultRegion = "us-east-1"

// Uploader is the subset of *s3.Client used here.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ Uploader = (*s3.Client)(nil)

// Target is a parsed s3://bucket/prefix destination.
type Target struct {
	Bucket string
	Prefix string
}

// ParseTarget extracts bucket and key prefix from an "s3://bucket/prefix" URI.
// The prefix may be empty.
func ParseTarget(uri string) (Target, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Target{}, fmt.Errorf("parse S3 target %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return Target{}, fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, uri)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("empty bucket in S3 target %q", uri)
	}
	return Target{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key joins the prefix, run stamp and file name.
func (t Target) Key(stamp, file string) string {
	return path.Join(t.Prefix, stamp, filepath.Base(file))
}

// URI renders the s3:// form of key.
func (t Target) URI(key string) string { return "s3://" + t.Bucket + "/" + key }

// Options configure the S3 client. Endpoint switches to path-style
// addressing for S3-compatible stores.
type Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// OptionsFromEnv reads the standard AWS_* credential variables.
func OptionsFromEnv() Options {
	return Options{
		Region:       os.Getenv("AWS_REGION"),
		AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken: os.Getenv("AWS_SESSION_TOKEN"),
	}
}

// NewClient builds an S3 client with static credentials.
func NewClient(o Options) (*s3.Client, error) {
	if o.AccessKey == "" || o.SecretKey == "" {
		return nil, fmt.Errorf("publishing needs AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}
	region := o.Region
	if region == "" {
		region = DefaultRegion
	}
	opts := s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, o.SessionToken),
	}
	if o.Endpoint != "" {
		opts.BaseEndpoint = aws.String(o.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".tsv":
		return "text/tab-separated-values"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".log":
		return "text/plain"
	}
	return "application/octet-stream"
}

// Files uploads each file to target under stamp and returns their s3:// URIs
// in the same order. It stops at the first failure.
func Files(ctx context.Context, up Uploader, t Target, stamp string, files []string) ([]string, error) {
	uris := make([]string, 0, len(files))
	for _, f := range files {
		uri, err := putFile(ctx, up, t, stamp, f)
		if err != nil {
			return uris, err
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

func putFile(ctx context.Context, up Uploader, t Target, stamp, file string) (string, error) {
	fh, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer func() { _ = fh.Close() }()
	st, err := fh.Stat()
	if err != nil {
		return "", err
	}

	key := t.Key(stamp, file)
	_, err = up.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.Bucket),
		Key:           aws.String(key),
		Body:          fh,
		ContentLength: aws.Int64(st.Size()),
		ContentType:   aws.String(contentType(file)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", file, t.URI(key), err)
	}
	return t.URI(key), nil
}
