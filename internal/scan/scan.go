// Package scan discovers and classifies archive bundles under a root
// directory: which framework version produced them and what kind of content
// (state snapshot, transaction batch, or epoch-ending marker) they hold.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BundleContent classifies what an archive manifest says it contains.
type BundleContent int

const (
	BundleUnknown BundleContent = iota
	BundleStateSnapshot
	BundleTransaction
	BundleEpochEnding
)

func (b BundleContent) String() string {
	switch b {
	case BundleStateSnapshot:
		return "state_snapshot"
	case BundleTransaction:
		return "transaction"
	case BundleEpochEnding:
		return "epoch_ending"
	default:
		return "unknown"
	}
}

// ManifestInfo describes one archive manifest found on disk.
type ManifestInfo struct {
	// ArchiveDir is the directory containing the manifest and its data
	// files (".chunk"/".gz" payloads).
	ArchiveDir string
	// ManifestPath is the absolute path to the manifest file itself.
	ManifestPath string
	Version      FrameworkVersionName
	Content      BundleContent
}

// FrameworkVersionName is a string alias kept distinct from
// warehouse.FrameworkVersion to avoid an import cycle; the ingest package
// converts it at the boundary (scanVersionToWarehouse).
type FrameworkVersionName string

const (
	VersionV5 FrameworkVersionName = "v5"
	VersionV6 FrameworkVersionName = "v6"
	VersionV7 FrameworkVersionName = "v7"
)

// manifestNames lists the manifest filenames scan probes for, per content
// kind, in the order archives are checked: v7 first, then v6. The first
// entry whose name matches wins. Only the file name is compared (manifest
// contents are not parsed), and v7 and v6 share each name, so every
// manifest found is reported as v7.
var manifestNames = map[BundleContent][]struct {
	name    string
	version FrameworkVersionName
}{
	BundleStateSnapshot: {
		{"state.manifest", VersionV7},
		{"state.manifest", VersionV6},
	},
	BundleTransaction: {
		{"transaction.manifest", VersionV7},
		{"transaction.manifest", VersionV6},
	},
	BundleEpochEnding: {
		{"epoch_ending.manifest", VersionV7},
		{"epoch_ending.manifest", VersionV6},
	},
}

// ArchiveMap is the result of scanning a directory tree: every manifest
// found, grouped by the directory it lives in.
type ArchiveMap struct {
	Manifests []ManifestInfo
}

// ScanDirArchive walks root looking for known manifest files. V5 archives
// carry no manifest at all (they are raw .tgz bundles of rescue JSON) and
// are reported separately via ScanDirV5Rescue.
func ScanDirArchive(root string) (ArchiveMap, error) {
	var out ArchiveMap

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		dir := filepath.Dir(path)
		base := filepath.Base(path)
		for content, candidates := range manifestNames {
			for _, c := range candidates {
				if base == c.name {
					out.Manifests = append(out.Manifests, ManifestInfo{
						ArchiveDir:   dir,
						ManifestPath: path,
						Version:      c.version,
						Content:      content,
					})
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return ArchiveMap{}, fmt.Errorf("scanning archive dir %s: %w", root, err)
	}

	sort.Slice(out.Manifests, func(i, j int) bool {
		return out.Manifests[i].ArchiveDir < out.Manifests[j].ArchiveDir
	})

	return out, nil
}

// ScanDirV5Rescue finds every .tgz rescue bundle under root, for the V5
// JSON-rescue ingest path.
func ScanDirV5Rescue(root string) ([]string, error) {
	var tgz []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".tgz") {
			tgz = append(tgz, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning v5 rescue dir %s: %w", root, err)
	}
	sort.Strings(tgz)
	return tgz, nil
}

// ByContent filters the map down to manifests of a single content kind.
func (a ArchiveMap) ByContent(content BundleContent) []ManifestInfo {
	var out []ManifestInfo
	for _, m := range a.Manifests {
		if m.Content == content {
			out = append(out, m)
		}
	}
	return out
}
