package compare

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/replica-sync/pkg/fsys"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, fs *fsys.AferoFS, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs.Afero(), path, []byte(content), 0o644))
	require.NoError(t, fs.Afero().Chtimes(path, mtime, mtime))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: SizeAndTime},
		{input: "size-time", want: SizeAndTime},
		{input: "SizeTime", want: SizeAndTime},
		{input: "size-and-time", want: SizeAndTime},
		{input: "md5", want: ContentHash},
		{input: " MD5 ", want: ContentHash},
		{input: "content-hash", want: ContentHash},
		{input: "sha256", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "size-time", SizeAndTime.String())
	assert.Equal(t, "md5", ContentHash.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}

func TestEqual(t *testing.T) {
	later := baseTime.Add(time.Minute)

	tests := []struct {
		name     string
		mode     Mode
		contentA string
		timeA    time.Time
		contentB string
		timeB    time.Time
		want     bool
	}{
		{
			name:     "size-time identical",
			mode:     SizeAndTime,
			contentA: "hello", timeA: baseTime,
			contentB: "hello", timeB: baseTime,
			want: true,
		},
		{
			name:     "size-time different size",
			mode:     SizeAndTime,
			contentA: "new content", timeA: baseTime,
			contentB: "old", timeB: baseTime,
			want: false,
		},
		{
			name:     "size-time different mtime",
			mode:     SizeAndTime,
			contentA: "hello", timeA: later,
			contentB: "hello", timeB: baseTime,
			want: false,
		},
		{
			name:     "size-time misses same-size same-time edit",
			mode:     SizeAndTime,
			contentA: "abc", timeA: baseTime,
			contentB: "xyz", timeB: baseTime,
			want: true,
		},
		{
			name:     "hash detects same-size same-time edit",
			mode:     ContentHash,
			contentA: "abc", timeA: baseTime,
			contentB: "xyz", timeB: baseTime,
			want: false,
		},
		{
			name:     "hash ignores mtime",
			mode:     ContentHash,
			contentA: "hello", timeA: later,
			contentB: "hello", timeB: baseTime,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsys.NewMemory()
			writeFile(t, fs, "/a", tt.contentA, tt.timeA)
			writeFile(t, fs, "/b", tt.contentB, tt.timeB)

			got, err := Equal(fs, tt.mode, "/a", "/b")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqualMissingFile(t *testing.T) {
	for _, mode := range []Mode{SizeAndTime, ContentHash} {
		t.Run(mode.String(), func(t *testing.T) {
			fs := fsys.NewMemory()
			writeFile(t, fs, "/a", "hello", baseTime)

			_, err := Equal(fs, mode, "/a", "/missing")
			assert.Error(t, err)
		})
	}
}

func TestEqualUnknownMode(t *testing.T) {
	fs := fsys.NewMemory()
	_, err := Equal(fs, Mode(42), "/a", "/b")
	assert.Error(t, err)
}
