package storage

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts    map[string][]byte
	types   map[string]string
	deleted []string
	err     error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{puts: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.puts[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func testStore(objects *fakeObjects) *S3Store {
	return newS3Store(objects, Options{
		Bucket:        "kitchen",
		Region:        "us-east-1",
		PublicBaseURL: "https://cdn.example.com/kitchen/",
	})
}

func TestNewS3Store_WithoutBucket(t *testing.T) {
	store, err := NewS3Store(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, store.Configured())

	_, err = store.Upload(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, store.Delete(context.Background(), "https://cdn.example.com/x.jpg"), ErrNotConfigured)
}

func TestS3Store_Upload(t *testing.T) {
	objects := newFakeObjects()
	store := testStore(objects)
	require.True(t, store.Configured())

	url, err := store.Upload(context.Background(), encodePNG(t, solid(10, 10, color.Black)))
	require.NoError(t, err)

	key, found := strings.CutPrefix(url, "https://cdn.example.com/kitchen/")
	require.True(t, found, url)
	assert.True(t, strings.HasPrefix(key, "recipes/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "image/jpeg", objects.types[key])
	assert.True(t, bytes.HasPrefix(objects.puts[key], []byte{0xFF, 0xD8}), "stored object should be a jpeg")
}

func TestS3Store_UploadErrors(t *testing.T) {
	objects := newFakeObjects()
	store := testStore(objects)

	_, err := store.Upload(context.Background(), []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Empty(t, objects.puts)

	objects.err = errors.New("bucket unreachable")
	_, err = store.Upload(context.Background(), encodePNG(t, solid(4, 4, color.White)))
	assert.ErrorIs(t, err, objects.err)
}

func TestS3Store_Delete(t *testing.T) {
	objects := newFakeObjects()
	store := testStore(objects)

	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/kitchen/recipes/abc.jpg"))
	assert.Equal(t, []string{"recipes/abc.jpg"}, objects.deleted)

	foreign := []string{
		"https://elsewhere.example.com/kitchen/recipes/abc.jpg",
		"https://cdn.example.com/kitchen/",
		"https://cdn.example.com/kitchen/../other/secret.jpg",
		"",
	}
	for _, url := range foreign {
		assert.ErrorIs(t, store.Delete(context.Background(), url), ErrForeignURL, url)
	}
	assert.Len(t, objects.deleted, 1)
}

func TestDefaultBaseURL(t *testing.T) {
	store := newS3Store(newFakeObjects(), Options{Bucket: "b", Region: "eu-west-1"})
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/", store.baseURL)

	store = newS3Store(newFakeObjects(), Options{Bucket: "b", Endpoint: "http://minio:9000/"})
	assert.Equal(t, "http://minio:9000/b/", store.baseURL)
}
