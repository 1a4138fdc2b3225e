package forge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrent(t *testing.T) {
	got := FormatCurrent("/p/dir/app.js", "\nconst a = 1;\nconst b = 2;\n\n")
	assert.Equal(t, "----> [app.js]:\n\n- const a = 1;\n- const b = 2;\n\n", got)
}

func TestFormatPrevious(t *testing.T) {
	got := FormatPrevious("/p/f.txt", "hi")
	assert.Equal(t, "----> [Previous Committed - f.txt]:\n\n- hi\n\n", got)
}

func TestFormatWhitespaceOnly(t *testing.T) {
	assert.Equal(t, "----> [blank.txt]:\n\n- \n\n", FormatCurrent("blank.txt", "  \n\t\n"))
}

func TestFormatKeepsInnerBlankLines(t *testing.T) {
	got := FormatCurrent("a.md", "one\n\ntwo")
	assert.Equal(t, "----> [a.md]:\n\n- one\n- \n- two\n\n", got)
}

func TestErrorBlock(t *testing.T) {
	assert.Equal(t, "[ERROR] Unable to process path: /x/y", ErrorBlock("/x/y"))
}

func TestBuildReport(t *testing.T) {
	assert.Equal(t, "START\n---\n\n---\nEND\n", BuildReport(nil))
	assert.Equal(t, "START\n---\n\na\nb\n---\nEND\n", BuildReport([]string{"a", "b"}))
}
