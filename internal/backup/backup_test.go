package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/houseledger/internal/config"
	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/model"
	"github.com/roach88/houseledger/internal/testutil"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func sampleSnapshot(t *testing.T) housestore.Snapshot {
	t.Helper()
	hs := housestore.New(
		housestore.WithTimeSource(testutil.NewDeterministicTime(10)),
		housestore.WithChangeIDs(testutil.NewSequenceGenerator("chg")),
	)
	ctx := context.Background()
	p := model.HousePayload{OwnersName: "Alice", Location: "Lagos", HouseType: "flat", Price: 1000, AvailableUnits: 1, Availability: true}
	a, err := hs.Add(ctx, p)
	require.NoError(t, err)
	b, err := hs.Add(ctx, p)
	require.NoError(t, err)
	_, err = hs.SetPrice(ctx, a.ID, 900)
	require.NoError(t, err)
	_, err = hs.Delete(ctx, b.ID)
	require.NoError(t, err)
	return hs.Snapshot()
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	snap := sampleSnapshot(t)
	path := filepath.Join(t.TempDir(), "snap.json")

	require.NoError(t, Save(ctx, FileStore{}, path, snap))
	got, err := Load(ctx, FileStore{}, path)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestFileStore_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), FileStore{}, filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestS3Store_SaveLoad(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	st := NewS3StoreWithClient(fake, "backups")
	snap := sampleSnapshot(t)

	require.NoError(t, Save(ctx, st, "daily/snap.json", snap))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "application/json", aws.ToString(fake.puts[0].ContentType))
	assert.Contains(t, fake.objects, "backups/daily/snap.json")

	got, err := Load(ctx, st, "daily/snap.json")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = Load(ctx, st, "missing.json")
	assert.Error(t, err)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"unknown field", `{"version":1,"last_id":0,"houses":[],"ledger":[],"extra":1}`},
		{"bad version", `{"version":2,"last_id":0,"houses":[],"ledger":[]}`},
		{"id beyond allocator", `{"version":1,"last_id":0,"houses":[{"id":1,"owners_name":"a","location":"b","house_type":"c","price":1,"availabile_units":1,"availability":true,"created_at":1,"updated_at":null}],"ledger":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEncode_TrailingNewline(t *testing.T) {
	data, err := Encode(housestore.Snapshot{Version: housestore.SnapshotVersion})
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	st, key, err := Resolve(ctx, "/tmp/x.json", config.S3Config{})
	require.NoError(t, err)
	assert.IsType(t, FileStore{}, st)
	assert.Equal(t, "/tmp/x.json", key)

	st, key, err = Resolve(ctx, "s3://backups/daily/x.json", config.S3Config{
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	require.NoError(t, err)
	require.IsType(t, &S3Store{}, st)
	assert.Equal(t, "backups", st.(*S3Store).bucket)
	assert.Equal(t, "daily/x.json", key)

	for _, bad := range []string{"", "s3://", "s3://bucket-only"} {
		_, _, err := Resolve(ctx, bad, config.S3Config{})
		assert.Error(t, err, bad)
	}
}
