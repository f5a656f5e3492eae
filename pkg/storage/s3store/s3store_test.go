package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/matryer/is"

	"lumen/pkg/storage"
)

type fakeBucket struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestSaveLoad(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	fake := &fakeBucket{objects: map[string][]byte{}}
	s := NewWithClient(fake, "saves", "characters/")

	_, err := s.Load(ctx, "Tin")
	is.True(errors.Is(err, storage.ErrNotFound))

	rec := &storage.Record{Name: "Tin", Properties: []storage.Property{{ID: 110, Kind: "integer", Int: 80}}}
	is.NoErr(s.Save(ctx, rec))
	is.Equal(aws.ToString(fake.puts[0].Key), "characters/Tin.json")
	is.Equal(aws.ToString(fake.puts[0].ContentType), "application/json")

	got, err := s.Load(ctx, "Tin")
	is.NoErr(err)
	is.Equal(got.Properties, rec.Properties)
	is.True(got.SavedAt.Equal(rec.SavedAt))
}

type brokenBucket struct{ fakeBucket }

func (brokenBucket) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("access denied")
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	s := NewWithClient(&brokenBucket{}, "saves", "")

	_, err := s.Load(context.Background(), "Tin")
	is.True(err != nil)
	is.True(!errors.Is(err, storage.ErrNotFound))
}

func TestInvalidName(t *testing.T) {
	is := is.New(t)
	s := NewWithClient(&fakeBucket{objects: map[string][]byte{}}, "saves", "")
	is.True(s.Save(context.Background(), &storage.Record{Name: "a/b"}) != nil)
}
