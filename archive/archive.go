// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package archive keeps signed documents in an OCI image layout on disk.
// Each document is stored as the single layer of an image manifest and the
// manifest is tagged with the digest of the document.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"
)

const (
	// ArtifactType is the artifact type of archived document manifests.
	ArtifactType = "application/vnd.offsign.signed-document.v1"

	// MediaTypeDocument is the media type of the document layer.
	MediaTypeDocument = "application/vnd.offsign.document"
)

// Store archives signed documents under an OCI layout root.
type Store struct {
	target *oci.Store
	now    func() time.Time
}

// New opens the OCI layout at root, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("archive directory not specified")
	}
	target, err := oci.New(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", root, err)
	}
	return &Store{target: target, now: time.Now}, nil
}

// Tag returns the tag under which a document with digest d is archived.
func Tag(d digest.Digest) string {
	return strings.ReplaceAll(d.String(), ":", "-")
}

// Archive stores signed as fileName and returns the manifest descriptor.
// Archiving the same bytes twice is not an error.
func (s *Store) Archive(ctx context.Context, fileName string, signed []byte) (ocispec.Descriptor, error) {
	layer := content.NewDescriptorFromBytes(MediaTypeDocument, signed)
	layer.Annotations = map[string]string{
		ocispec.AnnotationTitle: fileName,
	}
	if err := s.target.Push(ctx, layer, bytes.NewReader(signed)); err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return ocispec.Descriptor{}, fmt.Errorf("failed to store %s: %w", fileName, err)
	}

	opts := oras.PackManifestOptions{
		Layers: []ocispec.Descriptor{layer},
		ManifestAnnotations: map[string]string{
			ocispec.AnnotationTitle:   fileName,
			ocispec.AnnotationCreated: s.now().UTC().Format(time.RFC3339),
		},
	}
	manifestDesc, err := oras.PackManifest(ctx, s.target, oras.PackManifestVersion1_1, ArtifactType, opts)
	if err != nil && !errors.Is(err, errdef.ErrAlreadyExists) {
		return ocispec.Descriptor{}, fmt.Errorf("failed to pack manifest for %s: %w", fileName, err)
	}
	if err := s.target.Tag(ctx, manifestDesc, Tag(layer.Digest)); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("failed to tag %s: %w", fileName, err)
	}
	return manifestDesc, nil
}

// Fetch returns the archived document with digest d and its file name.
func (s *Store) Fetch(ctx context.Context, d digest.Digest) ([]byte, string, error) {
	manifestDesc, err := s.target.Resolve(ctx, Tag(d))
	if err != nil {
		return nil, "", fmt.Errorf("document %s not archived: %w", d, err)
	}
	manifestJSON, err := content.FetchAll(ctx, s.target, manifestDesc)
	if err != nil {
		return nil, "", err
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, "", err
	}
	if len(manifest.Layers) != 1 {
		return nil, "", fmt.Errorf("archived manifest requires exactly one layer, got %d", len(manifest.Layers))
	}
	layer := manifest.Layers[0]
	signed, err := content.FetchAll(ctx, s.target, layer)
	if err != nil {
		return nil, "", err
	}
	return signed, layer.Annotations[ocispec.AnnotationTitle], nil
}
