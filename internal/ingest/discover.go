package ingest

import (
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Logical snapshot names, as captured from the platform's GraphQL operations.
const (
	ContentFile        = "contentForPath"
	CourseProgressFile = "courseProgressQuery"
	ItemProgressFile   = "getUserInfoForTopicProgressMastery-"
	AttemptsFile       = "quizAndUnitTestAttemptsQuery-"

	outputFile = "information.csv"
)

// OutputName returns the table file name for a snapshot prefix.
func OutputName(prefix string) string {
	return prefix + outputFile
}

// Document is the raw content of one snapshot file.
type Document struct {
	Name string
	Data []byte
}

// Snapshot holds every input document of one run. Batches are ordered by
// their numeric file suffix.
type Snapshot struct {
	Content        Document
	CourseProgress Document
	ItemBatches    []Document
	AttemptBatches []Document
}

// Discover resolves the snapshot files in the root of fsys whose names
// start with prefix. The content and course progress documents are
// required; the batch kinds may have zero files.
func Discover(fsys billy.Filesystem, prefix string) (*Snapshot, error) {
	return discover(fsys, prefix, true, true)
}

// DiscoverContent resolves only the curriculum document.
func DiscoverContent(fsys billy.Filesystem, prefix string) (Document, error) {
	snap, err := discover(fsys, prefix, true, false)
	if err != nil {
		return Document{}, err
	}
	return snap.Content, nil
}

// DiscoverProgress resolves the progress documents, leaving Content empty.
func DiscoverProgress(fsys billy.Filesystem, prefix string) (*Snapshot, error) {
	return discover(fsys, prefix, false, true)
}

func discover(fsys billy.Filesystem, prefix string, content, progress bool) (*Snapshot, error) {
	names, err := listFiles(fsys)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if content {
		if snap.Content, err = readOne(fsys, names, prefix, ContentFile); err != nil {
			return nil, err
		}
	}
	if !progress {
		return snap, nil
	}
	if snap.CourseProgress, err = readOne(fsys, names, prefix, CourseProgressFile); err != nil {
		return nil, err
	}
	if snap.ItemBatches, err = readBatch(fsys, names, prefix, ItemProgressFile); err != nil {
		return nil, err
	}
	if snap.AttemptBatches, err = readBatch(fsys, names, prefix, AttemptsFile); err != nil {
		return nil, err
	}
	return snap, nil
}

func listFiles(fsys billy.Filesystem) ([]string, error) {
	entries, err := fsys.ReadDir(".")
	if err != nil {
		return nil, &IOError{Op: "list", Path: fsys.Root(), Err: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		mode := e.Mode()
		if mode&os.ModeSymlink != 0 {
			// Stat follows the link; dangling links are skipped
			target, err := fsys.Stat(e.Name())
			if err != nil {
				continue
			}
			mode = target.Mode()
		}
		if mode.IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func readOne(fsys billy.Filesystem, names []string, prefix, logical string) (Document, error) {
	want := prefix + logical
	for _, name := range names {
		if name == want+".json" || name == want {
			return readDocument(fsys, name)
		}
	}
	return Document{}, &MissingFileError{Name: logical, Dir: fsys.Root()}
}

func readBatch(fsys billy.Filesystem, names []string, prefix, logical string) ([]Document, error) {
	want := prefix + logical
	var matched []string
	for _, name := range names {
		if !strings.HasPrefix(name, want) {
			continue
		}
		if strings.HasSuffix(name, ".json") || !strings.Contains(name, ".") {
			matched = append(matched, name)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return batchIndex(matched[i]) < batchIndex(matched[j])
	})

	docs := make([]Document, 0, len(matched))
	for _, name := range matched {
		doc, err := readDocument(fsys, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// batchIndex is the number after the last '-' of a batch file name.
// Names without a numeric suffix sort first.
func batchIndex(name string) uint64 {
	base := strings.TrimSuffix(name, ".json")
	i := strings.LastIndex(base, "-")
	n, err := strconv.ParseUint(base[i+1:], 10, 32)
	if err != nil {
		return 0
	}
	return n
}

func readDocument(fsys billy.Filesystem, name string) (Document, error) {
	data, err := util.ReadFile(fsys, name)
	if err != nil {
		return Document{}, &IOError{Op: "read", Path: path.Join(fsys.Root(), name), Err: err}
	}
	return Document{Name: name, Data: data}, nil
}
