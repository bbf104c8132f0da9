package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/twiced-technology-gmbh/taskplan/internal/clierr"
)

const fileExt = ".md"

// ReadWarning describes a file that could not be parsed during lenient reading.
type ReadWarning struct {
	File string // base filename
	Err  error
}

// taskFiles returns the names of the markdown files in tasksDir. A missing
// directory holds no tasks.
func taskFiles(tasksDir string) ([]string, error) {
	entries, err := os.ReadDir(tasksDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tasks directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == fileExt {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// FindByID returns the path of the file holding the task with the given ID.
// Filenames start with the ID, but a hyphenated ID can prefix another
// task's filename, so candidates are confirmed against their frontmatter.
func FindByID(tasksDir, id string) (string, error) {
	names, err := taskFiles(tasksDir)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if name != id+fileExt && !strings.HasPrefix(name, id+"-") {
			continue
		}
		path := filepath.Join(tasksDir, name)
		if t, err := Read(path); err == nil && t.ID == id {
			return path, nil
		}
	}
	return "", clierr.Newf(clierr.TaskNotFound, "task not found: %s", id).
		WithDetails(map[string]any{"id": id})
}

// ReadAll reads every task in tasksDir and fails on the first malformed file.
func ReadAll(tasksDir string) ([]*Task, error) {
	tasks, warnings, err := readDir(tasksDir, true)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		return nil, fmt.Errorf("reading %s: %w", warnings[0].File, warnings[0].Err)
	}
	return tasks, nil
}

// ReadAllLenient reads every task in tasksDir, skipping malformed files and
// reporting them as warnings.
func ReadAllLenient(tasksDir string) ([]*Task, []ReadWarning, error) {
	return readDir(tasksDir, false)
}

func readDir(tasksDir string, stopOnError bool) ([]*Task, []ReadWarning, error) {
	names, err := taskFiles(tasksDir)
	if err != nil {
		return nil, nil, err
	}
	var tasks []*Task
	var warnings []ReadWarning
	for _, name := range names {
		t, err := Read(filepath.Join(tasksDir, name))
		if err != nil {
			warnings = append(warnings, ReadWarning{File: name, Err: err})
			if stopOnError {
				break
			}
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, warnings, nil
}
