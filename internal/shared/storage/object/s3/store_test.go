package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"coverletter-backend/internal/shared/storage/object"
)

// fakeS3 keeps objects in memory keyed by bucket/key.
type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTripWithPrefixAndKMS(t *testing.T) {
	api := newFakeS3()
	store := &Store{client: api, bucket: "letters", prefix: normalizePrefix("/prod/"), kmsKeyID: "kms-1"}
	ctx := context.Background()
	key := object.ExportKey("google:1", "e1", "Acme_Letter_2026-03-05.pdf")

	n, err := store.Put(ctx, key, "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.EqualValues(t, 8, n)

	put := api.puts[0]
	require.Equal(t, "prod/"+key, aws.ToString(put.Key))
	require.Equal(t, s3types.ServerSideEncryptionAwsKms, put.ServerSideEncryption)
	require.Equal(t, `attachment; filename="Acme_Letter_2026-03-05.pdf"`, aws.ToString(put.ContentDisposition))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	require.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	require.ErrorIs(t, err, object.ErrNotFound)
}

func TestStoreDefaultsToAES256(t *testing.T) {
	api := newFakeS3()
	store := &Store{client: api, bucket: "letters"}
	_, err := store.Put(context.Background(), "h/imports/i1/source.docx", "application/octet-stream", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, s3types.ServerSideEncryptionAes256, api.puts[0].ServerSideEncryption)
	require.Nil(t, api.puts[0].ContentDisposition)
}

func TestStoreRejectsTraversal(t *testing.T) {
	store := &Store{client: newFakeS3(), bucket: "letters"}
	ctx := context.Background()
	_, err := store.Put(ctx, "../escape.pdf", "application/pdf", strings.NewReader("x"))
	require.True(t, errors.Is(err, errInvalidKey))
	_, err = store.Open(ctx, "/etc/passwd")
	require.ErrorIs(t, err, errInvalidKey)
	require.ErrorIs(t, store.Delete(ctx, ""), errInvalidKey)
}

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		prefix, key, want string
	}{
		{"", "user/file.pdf", "user/file.pdf"},
		{"root/", "user/file.pdf", "root/user/file.pdf"},
		{"/root/", "/user/file.pdf", "root/user/file.pdf"},
		{"root/sub", "user/file.pdf", "root/sub/user/file.pdf"},
		{"root", "", "root"},
	}
	for _, tt := range tests {
		if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
			t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
		}
	}
}
