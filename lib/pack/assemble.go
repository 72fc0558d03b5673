// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"context"
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/weftworks/weft/lib/component"
	"github.com/weftworks/weft/lib/flowdef"
	"github.com/weftworks/weft/lib/git"
	"github.com/weftworks/weft/lib/version"
)

// ResolvedNode pairs a flow node with the component it resolved to.
type ResolvedNode struct {
	Ref       flowdef.NodeRef
	Component *component.ResolvedComponent
}

// Assemble builds the logical manifest from the loaded flow, the
// resolved nodes in source order, and the optional metadata overlay.
// A nil meta applies all defaults. The timestamp is the build's
// single resolved RFC 3339 instant and lands in both created_at_utc
// and the provenance built_at_utc.
func Assemble(flow *flowdef.Bundle, nodes []ResolvedNode, meta *Meta, timestamp string, provenance Provenance) (*Manifest, error) {
	if meta == nil {
		meta = &Meta{}
	}

	packID := meta.PackID
	if packID == "" {
		packID = "dev.local." + flow.ID
	}

	packVersion := meta.Version
	if packVersion == "" {
		packVersion = "0.1.0"
	}
	if _, err := semver.StrictNewVersion(packVersion); err != nil {
		return nil, &AssemblyError{Reason: "pack version is not semver", Err: err}
	}

	name := meta.Name
	if name == "" {
		name = flow.ID
	}

	kind, err := ParseKind(meta.Kind)
	if err != nil {
		return nil, err
	}

	entryFlows := meta.EntryFlows
	if entryFlows == nil {
		entryFlows = []string{flow.ID}
	}
	if len(entryFlows) == 0 {
		return nil, &AssemblyError{Reason: "entry_flows is empty"}
	}

	manifest := &Manifest{
		SchemaVersion: SchemaVersion,
		PackID:        packID,
		Version:       packVersion,
		Name:          name,
		Description:   meta.Description,
		Authors:       meta.Authors,
		License:       meta.License,
		Kind:          kind,
		EntryFlows:    entryFlows,
		Imports:       meta.Imports,
		Annotations:   jsonTable(meta.Annotations),
		CreatedAtUTC:  timestamp,
		Flow:          flowImage(flow),
		Components:    componentArtifacts(nodes),
		Provenance:    provenance,
	}
	if meta.Events != nil {
		manifest.Events = jsonTable(meta.Events)
	}
	return manifest, nil
}

func flowImage(flow *flowdef.Bundle) FlowImage {
	nodes := make([]ManifestNode, len(flow.Nodes))
	for i, node := range flow.Nodes {
		nodes[i] = ManifestNode{
			NodeID:    node.NodeID,
			Component: node.Component,
			SchemaID:  node.SchemaID,
		}
	}
	return FlowImage{
		ID:    flow.ID,
		Kind:  string(flow.Kind),
		Entry: flow.Entry,
		YAML:  string(flow.YAML),
		JSON:  string(flow.JSON),
		Hash:  flow.Hash.Hex(),
		Nodes: nodes,
	}
}

// componentArtifacts deduplicates the resolved components by
// name@version, first insertion wins, and returns them sorted by that
// key — the archive's component order is independent of node order.
func componentArtifacts(nodes []ResolvedNode) []ComponentArtifact {
	seen := make(map[string]bool, len(nodes))
	artifacts := make([]ComponentArtifact, 0, len(nodes))
	for _, node := range nodes {
		resolved := node.Component
		key := resolved.Name + "@" + resolved.Version.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		artifacts = append(artifacts, ComponentArtifact{
			Name:         resolved.Name,
			Version:      resolved.Version.String(),
			Path:         ComponentEntryPath(resolved.Name, resolved.Version.String()),
			World:        resolved.World,
			SchemaJSON:   resolved.SchemaJSON,
			ManifestJSON: resolved.ManifestJSON,
			Capabilities: resolved.Capabilities,
			HashBlake3:   resolved.WasmHash.Hex(),
		})
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Name+"@"+artifacts[i].Version < artifacts[j].Name+"@"+artifacts[j].Version
	})
	return artifacts
}

// CollectProvenance gathers the build environment: the builder tag,
// best-effort git metadata from dir, the host name, and the build
// timestamp. Git failures leave the respective fields absent.
func CollectProvenance(ctx context.Context, dir, timestamp string) Provenance {
	provenance := Provenance{
		Builder:    version.Builder(),
		BuiltAtUTC: timestamp,
		Notes:      "Built via weft pack build",
	}
	repo := git.NewRepository(dir)
	if commit, err := repo.Head(ctx); err == nil {
		provenance.GitCommit = commit
	}
	if remote, err := repo.RemoteURL(ctx); err == nil {
		provenance.GitRepo = remote
	}
	if host := os.Getenv("HOSTNAME"); host != "" {
		provenance.Host = host
	}
	return provenance
}
