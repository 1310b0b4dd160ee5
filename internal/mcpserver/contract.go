package mcpserver

// QueryGrammar describes the boolean tag query language accepted by the
// query_files tool.
const QueryGrammar = `# ebi Query Language

A query selects files by the tags they carry, directly or through a directory tag.

## Syntax

` + "```" + `
expr    = xor { "OR" xor }
xor     = and { "XOR" and }
and     = unary { "AND" unary }
unary   = "NOT" unary | primary
primary = "\"" name "\"" | "(" expr ")"
` + "```" + `

## Rules

1. **Tag names are double-quoted.** Inside a name, ` + "`" + `\"` + "`" + ` is a quote and ` + "`" + `\\` + "`" + ` a backslash.
2. **Keywords are upper case.** ` + "`" + `and` + "`" + ` is a syntax error.
3. **Precedence**, loosest first: OR, XOR, AND, NOT. Use parentheses to group.
4. **NOT** is relative to every file on the shelf.
5. **Unknown tags** fail the whole query; nothing partial is returned.
6. A file carries a directory tag when any directory above it declares that tag.

## Ordering

` + "`" + `order` + "`" + ` is one of name, size, modified, created, accessed, unordered (default name).
Files equal under the ordering are listed by path. With ` + "`" + `dedup` + "`" + ` only the first
file of each equal group is kept; files without a timestamp sort first.

## Examples

` + "```" + `
"invoices" AND "2024"
"photos" AND NOT ("private" OR "drafts")
"todo" XOR "done"
` + "```" + `
`
