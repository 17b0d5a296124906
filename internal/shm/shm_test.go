package shm

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestCreate(t *testing.T) {
	f, err := Create(4096)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 4096, f.Size())
	assert.GreaterOrEqual(t, f.Fd(), 0)

	copy(f.Bytes(), "wallpaper")

	buf := make([]byte, 9)
	_, err = f.file.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "wallpaper", string(buf))
}

func TestCreateTempfile(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	file, err := tempfile()
	require.NoError(t, err)
	defer file.Close()

	_, err = file.WriteString("x")
	assert.NoError(t, err)
}

func TestCreateInvalid(t *testing.T) {
	_, err := Create(0)
	assert.Error(t, err)
}

func TestCloseTwice(t *testing.T) {
	f, err := Create(16)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NoError(t, f.Close())
}

func TestCreateSealed(t *testing.T) {
	f, err := Create(4096)
	require.NoError(t, err)
	defer f.Close()

	seals, err := unix.FcntlInt(uintptr(f.Fd()), unix.F_GET_SEALS, 0)
	if err != nil {
		t.Skipf("memfd sealing unavailable: %v", err)
	}
	assert.NotZero(t, seals&unix.F_SEAL_SHRINK)
	assert.NotZero(t, seals&unix.F_SEAL_SEAL)
	assert.Error(t, f.file.Truncate(16))
}

func TestSealUnsupportedIsLogged(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)

	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	file, err := tempfile()
	require.NoError(t, err)
	defer file.Close()

	seal(file)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "shm file not sealed", entry.Message)
	assert.Error(t, entry.Data[logrus.ErrorKey].(error))
}
