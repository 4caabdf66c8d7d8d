package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	keys   []string
	types  []string
	bodies []string
	failOn string
}

func (f *fakeUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.ToString(in.Bucket)+"/"+key)
	f.types = append(f.types, aws.ToString(in.ContentType))
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func TestParseTarget(t *testing.T) {
	tg, err := ParseTarget("s3://lab-bucket/rnaseq/runs/")
	require.NoError(t, err)
	assert.Equal(t, Target{Bucket: "lab-bucket", Prefix: "rnaseq/runs"}, tg)
	assert.Equal(t, "rnaseq/runs/20260101_1200/x.csv", tg.Key("20260101_1200", "/tmp/out/x.csv"))

	tg, err = ParseTarget("s3://bare")
	require.NoError(t, err)
	assert.Equal(t, "s3://bare/st/f.pdf", tg.URI(tg.Key("st", "f.pdf")))

	for _, bad := range []string{"https://bucket/x", "s3:///nobucket", "bucket/key"} {
		_, err := ParseTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "tpm.csv")
	b := filepath.Join(dir, "plot.pdf")
	require.NoError(t, os.WriteFile(a, []byte("S1\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("%PDF-1.4"), 0o644))

	up := &fakeUploader{}
	uris, err := Files(context.Background(), up, Target{Bucket: "bk", Prefix: "p"}, "stamp", []string{a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"s3://bk/p/stamp/tpm.csv", "s3://bk/p/stamp/plot.pdf"}, uris)
	assert.Equal(t, []string{"bk/p/stamp/tpm.csv", "bk/p/stamp/plot.pdf"}, up.keys)
	assert.Equal(t, []string{"text/csv", "application/pdf"}, up.types)
	assert.Equal(t, "S1\n1\n", up.bodies[0])
}

func TestFiles_StopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, nil, 0o644))
	require.NoError(t, os.WriteFile(b, nil, 0o644))

	up := &fakeUploader{failOn: "s/a.csv"}
	uris, err := Files(context.Background(), up, Target{Bucket: "bk"}, "s", []string{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bk/s/a.csv")
	assert.Empty(t, uris)
	assert.Empty(t, up.keys)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)

	c, err := NewClient(Options{AccessKey: "k", SecretKey: "s", Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRegion, c.Options().Region)
	assert.True(t, c.Options().UsePathStyle)
}
