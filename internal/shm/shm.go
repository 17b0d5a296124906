// Package shm allocates anonymous shared memory that can be handed to
// a Wayland compositor as a wl_shm_pool.
package shm

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const name = "kawabg-shm"

// File is an anonymous file that is mapped into memory. Writes to
// Bytes are visible to any other process that maps the same file.
type File struct {
	file *os.File
	data []byte
}

// Create allocates a new File of the given size. It uses memfd_create
// if possible and falls back to an unlinked file in XDG_RUNTIME_DIR.
func Create(size int) (*File, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid shm size %v", size)
	}

	file, err := memfd()
	if err != nil {
		file, err = tempfile()
		if err != nil {
			return nil, err
		}
	}

	err = file.Truncate(int64(size))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("truncate shm file: %w", err)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap shm file: %w", err)
	}

	seal(file)

	return &File{
		file: file,
		data: data,
	}, nil
}

func memfd() (*os.File, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

// seal stops file from shrinking under a compositor that has it
// mapped. Files that do not support sealing are left as they are.
func seal(file *os.File) {
	_, err := unix.FcntlInt(file.Fd(), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK|unix.F_SEAL_SEAL)
	if err != nil {
		logrus.WithError(err).WithField("file", file.Name()).Debug("shm file not sealed")
	}
}

func tempfile() (*os.File, error) {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return nil, errors.New("no memfd support and XDG_RUNTIME_DIR is not set")
	}

	file, err := os.CreateTemp(dir, name+"-*")
	if err != nil {
		return nil, fmt.Errorf("create shm file: %w", err)
	}
	err = os.Remove(file.Name())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("unlink shm file: %w", err)
	}
	return file, nil
}

// Fd returns the file descriptor to send to the compositor. It
// remains owned by f.
func (f *File) Fd() int {
	return int(f.file.Fd())
}

// Bytes returns the mapped memory.
func (f *File) Bytes() []byte {
	return f.data
}

func (f *File) Size() int {
	return len(f.data)
}

// Close unmaps the memory and closes the file. The compositor's copy
// of the file descriptor, if any, is unaffected.
func (f *File) Close() error {
	var errs []error
	if f.data != nil {
		errs = append(errs, unix.Munmap(f.data))
		f.data = nil
	}
	if f.file != nil {
		errs = append(errs, f.file.Close())
		f.file = nil
	}
	return errors.Join(errs...)
}
