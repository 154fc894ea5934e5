package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootDoc = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childDoc = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// child with children
const childParentDoc = `---
layout: default
title: %s
parent: %s
nav_order: %d
has_children: true
---
`

// grandchildren
const grandchildDoc = `---
layout: default
title: %s
parent: %s
grand_parent: %s
nav_order: %d
---
`

// docType codes whether the command is a grandchild, child, etc
type docType int

const (
	root docType = iota
	child
	childParent
	grandchild
)

// meta is for describing the position/info for a command doc page
type meta struct {
	docType     docType
	title       string
	navOrder    int
	parent      string
	grandParent string
}

// docsCmd writes the Markdown docs of every command
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown documentation for each command",
	Args:   cobra.MaximumNArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "./docs"
		if len(args) > 0 {
			dir = args[0]
		}
		return makeDocs(dir)
	},
}

// makeDocs parses the custom commands and outputs Markdown documentation files
func makeDocs(dir string) error {
	metas := docMetas(RootCmd)
	return doc.GenMarkdownTreeCustom(RootCmd, dir, func(filename string) string {
		return filePrepender(metas, filename)
	}, linkHandler)
}

// docMetas places every visible command in the navigation tree, in the order they're listed
func docMetas(rootCmd *cobra.Command) map[string]meta {
	base := func(c *cobra.Command) string {
		return strings.ReplaceAll(c.CommandPath(), " ", "_")
	}

	metas := map[string]meta{base(rootCmd): {docType: root, title: rootCmd.Name()}}
	for i, c := range visible(rootCmd) {
		m := meta{docType: child, title: c.Name(), navOrder: i, parent: rootCmd.Name()}
		children := visible(c)
		if len(children) > 0 {
			m.docType = childParent
		}
		metas[base(c)] = m

		for j, gc := range children {
			metas[base(gc)] = meta{
				docType:     grandchild,
				title:       gc.Name(),
				navOrder:    j,
				parent:      c.Name(),
				grandParent: rootCmd.Name(),
			}
		}
	}
	return metas
}

func visible(c *cobra.Command) []*cobra.Command {
	cmds := []*cobra.Command{}
	for _, sub := range c.Commands() {
		if sub.IsAvailableCommand() {
			cmds = append(cmds, sub)
		}
	}
	return cmds
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(metas map[string]meta, filename string) string {
	name := filepath.Base(filename)
	m := metas[strings.TrimSuffix(name, path.Ext(name))]

	switch m.docType {
	case root:
		return fmt.Sprintf(rootDoc, m.title, m.navOrder)
	case child:
		return fmt.Sprintf(childDoc, m.title, m.parent, m.navOrder)
	case childParent:
		return fmt.Sprintf(childParentDoc, m.title, m.parent, m.navOrder)
	case grandchild:
		return fmt.Sprintf(grandchildDoc, m.title, m.parent, m.grandParent, m.navOrder)
	}

	return ""
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, path.Ext(name))

	if base == "felix" {
		return "/"
	}
	return base
}

func init() {
	RootCmd.AddCommand(docsCmd)
}
