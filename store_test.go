package vidcrypt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/absfs/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	fs, err := memfs.NewFS()
	require.NoError(t, err)
	s, err := NewStore(fs)
	require.NoError(t, err)
	return s
}

func TestStore_WriteReadRemove(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.WriteFile("/notes.txt", []byte("hello"), 0600))

	f, err := s.ReadFile("/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, []byte("hello"), f.Data)

	exists, err := s.Exists("/notes.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Remove("/notes.txt"))
	exists, err = s.Exists("/notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.True(t, IsIOError(s.Remove("/notes.txt")))
}

func TestStore_RefusesOverwrite(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.WriteFile("/out.bin", []byte("first"), 0600))
	err := s.WriteFile("/out.bin", []byte("second"), 0600)
	assert.ErrorIs(t, err, ErrOutputExists)

	f, err := s.ReadFile("/out.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), f.Data)
}

func TestStore_CommitStagedFile(t *testing.T) {
	s := newTestStore(t)

	staged := s.TempPath("/video.mkv")
	assert.True(t, strings.HasPrefix(staged, "/.video-"), staged)
	assert.True(t, strings.HasSuffix(staged, ".mkv"), staged)
	assert.NotEqual(t, staged, s.TempPath("/video.mkv"), "temp names are unique")

	f, err := s.fs.Create(staged)
	require.NoError(t, err)
	_, err = f.Write([]byte("frames"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Commit(staged, "/video.mkv"))
	exists, err := s.Exists(staged)
	require.NoError(t, err)
	assert.False(t, exists, "staged file is renamed away")

	got, err := s.ReadFile("/video.mkv")
	require.NoError(t, err)
	assert.Equal(t, []byte("frames"), got.Data)

	// A second commit onto the same name is refused and the staged file
	// cleaned up.
	staged = s.TempPath("/video.mkv")
	f, err = s.fs.OpenFile(staged, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.ErrorIs(t, s.Commit(staged, "/video.mkv"), ErrOutputExists)
	exists, err = s.Exists(staged)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadFile("/missing")
	assert.True(t, IsIOError(err))
}

func TestNewStore_Nil(t *testing.T) {
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		output string
		inputs int
		want   string
	}{
		{"/docs/a.txt", "/videos/out.mkv", 1, "/videos/out.mkv"},
		{"/docs/a.txt", "/videos/out.mkv", 2, "/videos/a_out.mkv"},
		{"report.tar.gz", "out.mkv", 3, "report.tar_out.mkv"},
		{"noext", "v.mkv", 2, "noext_v.mkv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.input, tt.output, tt.inputs), "%s -> %s", tt.input, tt.output)
	}
}

func TestStore_ChannelRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ch := newTestChannel(t, ProfileRGBA)
	key := testKey(t, "pw1234567890")

	require.NoError(t, s.WriteFile("/in.txt", []byte("carried through video frames"), 0600))
	file, err := s.ReadFile("/in.txt")
	require.NoError(t, err)

	var sink FrameCollector
	_, err = ch.WriteTo(context.Background(), &sink, file, key, Resolution{Width: 24, Height: 24}, 30)
	require.NoError(t, err)

	rec, err := ch.Read(context.Background(), NewSliceSource(sink.Frames()), key)
	require.NoError(t, err)

	require.NoError(t, s.Remove("/in.txt"))
	require.NoError(t, s.WriteFile("/"+rec.Filename, rec.Plaintext, 0600))

	got, err := s.ReadFile("/in.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("carried through video frames"), got.Data)
}

func TestStore_ConcurrentCommitsToSameName(t *testing.T) {
	s := newTestStore(t)
	const writers = 8

	staged := make([]string, writers)
	for i := range staged {
		staged[i] = s.TempPath("/shared.mkv")
		f, err := s.fs.Create(staged[i])
		require.NoError(t, err)
		_, err = f.Write([]byte(fmt.Sprintf("writer %d", i)))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range staged {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Commit(staged[i], "/shared.mkv")
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one commit may succeed")
			winner = i
			continue
		}
		assert.True(t, errors.Is(err, ErrOutputExists), "writer %d: %v", i, err)
	}
	require.NotEqual(t, -1, winner)

	got, err := s.ReadFile("/shared.mkv")
	require.NoError(t, err)
	assert.Equal(t, []byte(fmt.Sprintf("writer %d", winner)), got.Data)
}
