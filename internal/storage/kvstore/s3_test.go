package kvstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjects mimics the object calls of an S3 bucket in memory.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
	puts    []*s3.PutObjectInput
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	value, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(value))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = value
	f.puts = append(f.puts, params)
	return &s3.PutObjectOutput{}, nil
}

func TestS3KVRoundTripsUnderPrefix(t *testing.T) {
	objects := newFakeObjects()
	kv := NewS3KVWithClient(objects, S3Config{Bucket: "care", Prefix: "contexts/"})

	_, found, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(DefaultKey, []byte(`{"persons":[]}`)))
	value, found, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"persons":[]}`, string(value))

	require.Len(t, objects.puts, 1)
	assert.Equal(t, "contexts/"+DefaultKey, aws.ToString(objects.puts[0].Key))
	assert.Equal(t, contentTypeJSON, aws.ToString(objects.puts[0].ContentType))
	assert.EqualValues(t, len(`{"persons":[]}`), aws.ToInt64(objects.puts[0].ContentLength))
}

func TestS3KVBacksTheContextStore(t *testing.T) {
	objects := newFakeObjects()
	kv := NewS3KVWithClient(objects, S3Config{Bucket: "care"})

	engine, err := Open(kv, DefaultKey, nil)
	require.NoError(t, err)
	_, err = engine.AddPerson("Zardoz")
	require.NoError(t, err)

	reopened, err := Open(NewS3KVWithClient(objects, S3Config{Bucket: "care"}), DefaultKey, nil)
	require.NoError(t, err)
	require.Len(t, reopened.Persons(), 1)
	assert.Equal(t, "Zardoz", reopened.Persons()[0].Name)
}

func TestS3KVSurfacesTransportErrors(t *testing.T) {
	objects := newFakeObjects()
	objects.getErr = errors.New("connection reset")
	kv := NewS3KVWithClient(objects, S3Config{Bucket: "care"})

	_, _, err := kv.Get(DefaultKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewS3KVRequiresBucket(t *testing.T) {
	_, err := NewS3KV(context.Background(), S3Config{})
	require.Error(t, err)
}
