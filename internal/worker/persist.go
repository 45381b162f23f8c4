package worker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Persister moves a task's outputs into durable storage and returns a
// single reference the master can hand to readers.
type Persister interface {
	Persist(jobName string, outputs []*Output) (string, error)
}

// DirPersister copies outputs into a directory tree under Root, one
// directory per job.
type DirPersister struct {
	Root string
}

func (persister DirPersister) Persist(jobName string, outputs []*Output) (string, error) {
	dest := filepath.Join(persister.Root, jobName)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("could not create durable directory %v: %w", dest, err)
	}

	for _, output := range outputs {
		if err := copyFile(output.Path, filepath.Join(dest, filepath.Base(output.Path))); err != nil {
			return "", err
		}
	}
	return "dir://" + dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not read output %v: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("could not persist output to %v: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("could not persist output to %v: %w", dest, err)
	}
	return out.Close()
}
