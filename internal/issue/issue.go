// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	SourceDirNotFoundId
	ImportNotFoundId
	PropsParseErrorId
	OutputWriteFailedId
	GitHistoryFailedId
	ManifestNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be read or does not match the schema.

## Things you can try:
- Print the path that was used:
~~~
$ uscompile config path
~~~

- Compare your file with the defaults:
~~~
$ uscompile config dump
~~~

- Check the error message above for the offending field
- Environment variables use the USCOMPILE_ prefix, e.g. USCOMPILE_OUTPUT_DIR`,
	}

	sourceDirNotFoundIssue = &Issue{
		id: SourceDirNotFoundId,
		mdMsg: `
# Source directory not found!

The directory holding your *.user.js and *.user.css files does not exist.

## Things you can try:
- Run from the project root, or point at the directory explicitly:
~~~
$ uscompile build --src path/to/src
~~~

- Set source_dir in uscompile.cue:
~~~cue
source_dir: "src"
~~~`,
	}

	importNotFoundIssue = &Issue{
		id: ImportNotFoundId,
		mdMsg: `
# Imported fragment not found!

A script or fragment names a fragment with @import{...} that does not exist
in the import directory.

## Things you can try:
- Check the spelling: @import{dom} loads dom.js from the import directory
- Point at another import directory:
~~~
$ uscompile build --imports path/to/snippets
~~~

- Fragment names are plain file names without the .js extension`,
	}

	propsParseErrorIssue = &Issue{
		id: PropsParseErrorId,
		mdMsg: `
# Failed to parse a properties file!

A *.props.json or common.props.json file is not a JSON object of
string, number, boolean or string list values.

## Example of a valid properties file:
~~~json
{
  "author": "me",
  "grant": ["GM_setValue", "GM_getValue"],
  "match": "https://example.com/*"
}
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write compiled output!

An artifact or the manifest could not be written to the output directory.

## Things you can try:
- Check that the output directory is writable
- Make sure no other program holds the file open
- Choose a different output directory:
~~~
$ uscompile build --out /tmp/dist
~~~`,
	}

	gitHistoryFailedIssue = &Issue{
		id: GitHistoryFailedId,
		mdMsg: `
# Failed to read git history!

Versions for artifacts without an explicit @version are derived from the
most recent commit touching their files, and reading that history failed.

## Things you can try:
- Give the artifact an explicit version in its header or props file
- Skip history lookups:
~~~
$ uscompile build --no-git
~~~

- Point at the repository explicitly with version.repo_dir in uscompile.cue`,
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# Manifest not found!

No manifest exists in the output directory yet.

## Things you can try:
- Build first:
~~~
$ uscompile build
~~~

- Point at the output directory used for the build:
~~~
$ uscompile manifest --out dist
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		sourceDirNotFoundIssue.Id(): sourceDirNotFoundIssue,
		importNotFoundIssue.Id():    importNotFoundIssue,
		propsParseErrorIssue.Id():   propsParseErrorIssue,
		outputWriteFailedIssue.Id(): outputWriteFailedIssue,
		gitHistoryFailedIssue.Id():  gitHistoryFailedIssue,
		manifestNotFoundIssue.Id():  manifestNotFoundIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
