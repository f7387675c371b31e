package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTSV(t *testing.T) {
	dir := t.TempDir()
	errWrite := errors.New("disk full")

	tests := []struct {
		name    string
		path    string
		write   func(io.Writer) error
		wantErr error
		want    string
	}{
		{
			name:  "written and closed",
			path:  filepath.Join(dir, "24h_final.tsv"),
			write: func(w io.Writer) error { _, err := io.WriteString(w, "ProteinId\n"); return err },
			want:  "ProteinId\n",
		},
		{
			name:    "write error returned",
			path:    filepath.Join(dir, "6h_final.tsv"),
			write:   func(io.Writer) error { return errWrite },
			wantErr: errWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeTSV(tt.path, tt.write)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, err := os.ReadFile(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}

	err := writeTSV(filepath.Join(dir, "missing", "x.tsv"), func(io.Writer) error { return nil })
	assert.Error(t, err)
}
