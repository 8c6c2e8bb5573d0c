package mcpserver

// CellFormatContract describes how cells and image tags are written.
const CellFormatContract = `# Marquee Cell Format

A cell is one entry on the public display.

## Fields

| field         | type    | notes                                                  |
|---------------|---------|--------------------------------------------------------|
| ` + "`" + `title` + "`" + `       | string  | REQUIRED, must contain a non-space character           |
| ` + "`" + `description` + "`" + ` | string  | free text, or exactly one image tag (see below)        |
| ` + "`" + `display` + "`" + `     | boolean | hidden from the display when false; defaults to true   |
| ` + "`" + `order` + "`" + `       | integer | assigned by the store; ignored when editing a cell     |

## IDs

Cell IDs look like ` + "`" + `cell_1700000000000` + "`" + `. Pass an empty or malformed
ID to ` + "`" + `set_cell` + "`" + ` to create a new cell; the result carries the new ID.

## Images

1. Store the picture first with ` + "`" + `save_image` + "`" + ` (a local path) or
   ` + "`" + `save_image_data` + "`" + ` (a base64 data URI). Both return the stored name.
2. Set the cell description to exactly ` + "`" + `[image='<stored name>']` + "`" + `.

The cell owns that file. Replacing the description with anything that does not
reference the same file, or deleting the cell, deletes the image.

Supported formats: jpg, jpeg, png, gif, bmp, webp.

## Example

` + "```" + `json
{"title": "Lunch menu", "description": "[image='menu_1.png']", "display": true}
` + "```" + `
`
