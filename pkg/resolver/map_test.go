package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evergreen-js/resolver/internal/manifest"
)

func condSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

func processField(t *testing.T, field mapField, raw string, request string, conditions ...string) ([]string, error) {
	t.Helper()
	root, ok := manifest.ValueFromJSON(raw)
	require.True(t, ok, "fixture JSON must be valid: %s", raw)
	return fieldProcess(field, root, request, condSet(conditions...))
}

func expectExports(t *testing.T, raw string, request string, conditions []string, expected ...string) {
	t.Helper()
	actual, err := processField(t, exportsMapField, raw, request, conditions...)
	require.NoError(t, err)
	assert.Equal(t, expected, actual, "exports %s against %s", request, raw)
}

func expectExportsError(t *testing.T, raw string, request string, conditions []string, message string) {
	t.Helper()
	_, err := processField(t, exportsMapField, raw, request, conditions...)
	require.Error(t, err)
	var unexpected *UnexpectedValueError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, message, unexpected.Message)
}

func expectImports(t *testing.T, raw string, request string, conditions []string, expected ...string) {
	t.Helper()
	actual, err := processField(t, importsMapField, raw, request, conditions...)
	require.NoError(t, err)
	assert.Equal(t, expected, actual, "imports %s against %s", request, raw)
}

func expectImportsError(t *testing.T, raw string, request string, conditions []string, message string) {
	t.Helper()
	_, err := processField(t, importsMapField, raw, request, conditions...)
	require.Error(t, err)
	var unexpected *UnexpectedValueError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, message, unexpected.Message)
}

func none() []string { return nil }

func conds(names ...string) []string { return names }

func TestExportsFieldRoots(t *testing.T) {
	expectExports(t, `"./main.js"`, ".", none(), "./main.js")
	expectExports(t, `"./main.js"`, "./main.js", none())
	expectExports(t, `"./main.js"`, "./lib.js", none())
	expectExports(t, `["./a.js", "./b.js"]`, ".", none(), "./a.js", "./b.js")
	expectExports(t, `["./a.js", "./b.js"]`, "./a.js", none())
	expectExports(t, `{".": "./dist/index.js"}`, ".", none(), "./dist/index.js")
	expectExports(t, `{".": "./index"}`, ".", none(), "./index")
	expectExports(t, `{"./index": "./index.js"}`, "./index", none(), "./index.js")

	// A pure conditional root only matches ".".
	expectExports(t, `{"browser": {"default": "./index.js"}}`, "./lib.js", conds("browser"))
	expectExports(t, `{"browser": {"default": "./index.js"}}`, ".", conds("browser"), "./index.js")
}

func TestExportsFieldSubpathAndPatterns(t *testing.T) {
	expectExports(t, `{"./a/": "./A/", "./a/b/c": "./c.js"}`, "./a/b/d.js", none(), "./A/b/d.js")
	expectExports(t, `{"./a/": "./A/", "./a/b": "./b.js"}`, "./a/c.js", none(), "./A/c.js")
	expectExports(t, `{"./a/*": "./A/*", "./a/b/c": "./c.js"}`, "./a/b/d.js", none(), "./A/b/d.js")

	// Longer base wins.
	expectExports(t, `{"./ab*": "./ab/*", "./abc*": "./abc/*", "./a*": "./a/*"}`, "./abcd", none(), "./abc/d")
	expectExports(t, `{"./ab*": "./ab/*", "./abc*": "./abc/*", "./a*": "./a/*"}`, "./abcd/e", none(), "./abc/d/e")
	expectExports(t, `{"./x/ab*": "./ab/*", "./x/abc*": "./abc/*", "./x/a*": "./a/*"}`, "./x/abcd", conds("browser"), "./abc/d")

	expectExports(t, `{"./timezones/": "./data/timezones/"}`, "./timezones/pdt.mjs", none(), "./data/timezones/pdt.mjs")
	expectExports(t, `{"./": "./data/timezones/"}`, "./timezones/pdt.mjs", none(), "./data/timezones/timezones/pdt.mjs")
	expectExports(t, `{"./*": "./data/timezones/*.mjs"}`, "./timezones/pdt", none(), "./data/timezones/timezones/pdt.mjs")
	expectExports(t, `{"./": "./", "./dist/": "./lib/"}`, "./dist/index.mjs", none(), "./lib/index.mjs")
	expectExports(t, `{"./*": "./*", "./dist/*": "./lib/*"}`, "./dist/index.mjs", none(), "./lib/index.mjs")
	expectExports(t,
		`{"./dist/utils/index.js": "./dist/utils/index.js", "./dist/utils/": "./dist/utils/index.mjs", "./dist/": "./lib/"}`,
		"./dist/utils/index.js", none(), "./dist/utils/index.js")

	// Near misses stay unmapped.
	expectExports(t, `{"./dist/a": "./dist/index.js"}`, "./dist/aaa", none())
	expectExports(t, `{"./dist/a/a/": "./dist/index.js"}`, "./dist/a", none())
	expectExports(t, `{"./timezones": "./data/timezones"}`, "./timezones/pdt.mjs", none())
	expectExports(t, `{".": "./index.js"}`, "./timezones/pdt.mjs", none())
	expectExports(t, `{".": "./"}`, "./timezones/pdt.mjs", none())
	expectExports(t, `{".": "./*"}`, "./timezones/pdt.mjs", none())

	// Keys with several '*' never match; single-star keys replace each '*'.
	expectExports(t, `{"./#zipp*": "./z*z*z*"}`, "./#zippi", none(), "./zizizi")

	// Special characters are matched literally.
	literal := `{"./#foo": "./ok.js", "./module": "./ok.js", "./🎉": "./ok.js",
		"./%F0%9F%8E%89": "./other.js", "./bar#foo": "./ok.js", "./#zapp/": "./"}`
	expectExports(t, literal, "./#foo", none(), "./ok.js")
	expectExports(t, literal, "./bar#foo", none(), "./ok.js")
	expectExports(t, literal, "./#zapp/ok.js#abc", none(), "./ok.js#abc")
	expectExports(t, literal, "./#zapp/ok.js?abc", none(), "./ok.js?abc")
	expectExports(t, literal, "./🎉", none(), "./ok.js")
	expectExports(t, literal, "./%F0%9F%8E%89", none(), "./other.js")
	expectExports(t, literal, "./module", none(), "./ok.js")
	expectExports(t, literal, "./module#foo", none())
	expectExports(t, literal, "./module?foo", none())
	expectExports(t, `{"./a?b?c/": "./"}`, "./a?b?c/d?e?f", none(), "./d?e?f")
}

func TestExportsFieldConditions(t *testing.T) {
	expectExports(t,
		`{".": {"browser": "./index.js", "node": "./src/node/index.js", "default": "./src/index.js"}}`,
		".", conds("browser"), "./index.js")
	expectExports(t,
		`{".": {"browser": "./index.js", "node": "./src/node/index.js", "default": "./src/index.js"}}`,
		".", none(), "./src/index.js")

	expectExports(t,
		`{"./utils/": {"webpack": "./wpk/", "browser": ["lodash/", "./utils/"], "node": ["./utils/"]}}`,
		"./utils/index.mjs", conds("browser", "webpack"), "./wpk/index.mjs")
	expectExports(t,
		`{"./utils/": {"browser": ["lodash/", "./utils/"], "node": ["./utils-node/"]}}`,
		"./utils/index.js", conds("browser"), "lodash/index.js", "./utils/index.js")
	expectExports(t,
		`{"./utils/": {"webpack": "./wpk/", "browser": ["lodash/", "./utils/"], "node": ["./node/"]}}`,
		"./utils/index.mjs", none())

	// Ordered alternatives accumulate across the fallback array.
	expectExports(t,
		`{".": [{"browser": "./browser.js"}, {"require": "./require.js"}, {"import": "./import.mjs"}]}`,
		".", none())
	expectExports(t,
		`{".": [{"browser": "./browser.js"}, {"require": "./require.js"}, {"import": "./import.mjs"}]}`,
		".", conds("import"), "./import.mjs")
	expectExports(t,
		`{".": [{"browser": "./browser.js"}, {"require": "./require.js"}, {"import": "./import.mjs"}]}`,
		".", conds("import", "require"), "./require.js", "./import.mjs")
	expectExports(t,
		`{".": [{"browser": "./browser.js"}, {"require": "./require.js"}, {"import": ["./import.mjs", "./import.js"]}]}`,
		".", conds("import", "require"), "./require.js", "./import.mjs", "./import.js")

	// Nested conditionals descend iteratively.
	nested := `{"./utils/": {"browser": {"webpack": ["./", "./node/"], "default": {"node": "./node/"}}}}`
	expectExports(t, nested, "./utils/index.js", conds("browser"))
	expectExports(t, nested, "./utils/index.js", conds("browser", "webpack"), "./index.js", "./node/index.js")
	expectExports(t, nested, "./utils/index.js", conds("webpack"))
	expectExports(t, nested, "./utils/index.js", conds("node", "browser"), "./node/index.js")

	// A matching condition whose nested object selects nothing falls through
	// to a later matching condition; one that selects a value, even an empty
	// array, wins.
	expectExports(t, `{"./a.js": {"abc": {"def": "./x.js"}, "ghi": "./y.js"}}`,
		"./a.js", conds("abc", "ghi"), "./y.js")
	expectExports(t, `{"./a.js": {"abc": {"def": "./x.js", "default": []}, "ghi": "./y.js"}}`,
		"./a.js", conds("abc", "ghi"))
}

func TestExportsFieldNodeCorpus(t *testing.T) {
	// Lifted from Node's own pkgexports fixture.
	value := `{
		"./hole": "./lib/hole.js",
		"./space": "./sp%20ce.js",
		"./valid-cjs": "./asdf.js",
		"./sub/*": "./*",
		"./sub/internal/*": null,
		"./null": null,
		"./fallbackdir/*": [[], null, {}, "builtin:x/*", "./*"],
		"./fallbackfile": [[], null, {}, "builtin:x", "./asdf.js"],
		"./condition": [{
			"custom-condition": {"import": "./custom-condition.mjs", "require": "./custom-condition.js"},
			"import": "///overridden",
			"require": {"require": {"nomatch": "./nothing.js"}, "default": "./sp ce.js"},
			"default": "./asdf.js",
			"node": "./lib/hole.js"
		}],
		"./resolve-self": {"require": "./resolve-self.js", "import": "./resolve-self.mjs"},
		"./*/trailer": "./subpath/*.js",
		"./*/*railer": "never",
		"./*trailer": "never",
		"./*/dir2/trailer": "./subpath/*/index.js",
		"./a/*": "./subpath/*.js",
		"./a/b/": "./nomatch/",
		"./a/b*": "./subpath*.js",
		"./subpath/*": "./subpath/*",
		"./subpath/sub-*": "./subpath/dir1/*.js",
		"./subpath/sub-*.js": "./subpath/dir1/*.js",
		"./features/*": "./subpath/*/*.js",
		"./trailing-pattern-slash*": "./trailing-pattern-slash*index.js"
	}`

	expectExports(t, value, "./valid-cjs", none(), "./asdf.js")
	expectExports(t, value, "./space", none(), "./sp%20ce.js")
	expectExports(t, value, "./fallbackdir/asdf.js", none(), "builtin:x/asdf.js", "./asdf.js")
	expectExports(t, value, "./fallbackfile", none(), "builtin:x", "./asdf.js")
	expectExports(t, value, "./condition", conds("require"), "./sp ce.js")
	expectExports(t, value, "./resolve-self", conds("require"), "./resolve-self.js")
	expectExports(t, value, "./resolve-self", conds("import"), "./resolve-self.mjs")
	expectExports(t, value, "./subpath/sub-dir1", none(), "./subpath/dir1/dir1.js")
	expectExports(t, value, "./subpath/sub-dir1.js", none(), "./subpath/dir1/dir1.js")
	expectExports(t, value, "./features/dir1", none(), "./subpath/dir1/dir1.js")
	expectExports(t, value, "./dir1/dir1/trailer", none(), "./subpath/dir1/dir1.js")
	expectExports(t, value, "./dir2/trailer", none(), "./subpath/dir2.js")
	expectExports(t, value, "./dir2/dir2/trailer", none(), "./subpath/dir2/index.js")
	expectExports(t, value, "./a/dir1/dir1", none(), "./subpath/dir1/dir1.js")
	expectExports(t, value, "./a/b/dir1/dir1", none(), "./subpath/dir1/dir1.js")
	expectExports(t, value, "./sub/no-a-file.js", none(), "./no-a-file.js")
	expectExports(t, value, "./sub/internal/test.js", none())
	expectExports(t, value, "./trailing-pattern-slash/", none(), "./trailing-pattern-slash/index.js")
}

func TestExportsFieldEscapesDollarSigns(t *testing.T) {
	expectExports(t, `{"./a/*": "./b/*"}`, "./a/$money", none(), "./b/$$money")
}

func TestExportsFieldErrors(t *testing.T) {
	expectExportsError(t, `{"./utils/": {"browser": "../this/"}}`, "./utils/index", conds("browser"),
		`Export should be relative path and start with "./", but got ../this/`)
	expectExportsError(t,
		`{".": {"default": "./src/index.js", "browser": "./index.js", "node": "./src/node/index.js"}}`,
		".", conds("browser"),
		"Default condition should be last one")
	expectExportsError(t, `{"./*": "."}`, "./timezones/pdt.mjs", none(),
		`Export should be relative path and start with "./", but got .`)
	expectExportsError(t, `{"./timezones/": "./data/timezones"}`, "./timezones/pdt.mjs", none(),
		"Expected ./data/timezones is folder mapping")
	expectExportsError(t, `{"./node": "./node.js", "browser": {"default": "./index.js"}}`, ".", conds("browser"),
		`Export field key should be relative path and start with ".", but got browser`)
	expectExportsError(t, `{"browser": {"default": "./index.js"}, "./node": "./node.js"}`, ".", conds("browser"),
		`Export field key should be relative path and start with "./", but got ./node`)
	expectExportsError(t, `{"/utils/": "./a/"}`, "./utils/index.mjs", none(),
		`Export field key should be relative path and start with "./", but got /utils/`)
	expectExportsError(t, `{"./utils/": "/a/"}`, "./utils/index.mjs", none(),
		`Export should be relative path and start with "./", but got /a/`)
	expectExportsError(t, `{"./utils/": "./a/"}`, "/utils/index.mjs", none(),
		"Request should be relative path and start with '.', but got /utils/index.mjs")
	expectExportsError(t, `{"./utils/": "./a/"}`, "../utils/index.mjs", none(),
		"Request should be relative path and start with '.', but got ../utils/index.mjs")
	expectExportsError(t, `{"../../utils/*": "./dist/*"}`, "./utils/index", none(),
		`Export field key should be relative path and start with "./", but got ../../utils/*`)
	expectExportsError(t, `{"./utils/*": "../src/*"}`, "./utils/index", none(),
		`Export should be relative path and start with "./", but got ../src/*`)
}

func TestImportsField(t *testing.T) {
	expectImports(t,
		`{"#abc/": {"import": ["./dist/", "./src/"], "webpack": "./wp/"}, "#abc": "./main.js"}`,
		"#abc/test/file.js", conds("import", "webpack"), "./dist/test/file.js", "./src/test/file.js")
	expectImports(t, `{"#1/timezones/": "./data/timezones/"}`, "#1/timezones/pdt.mjs", none(),
		"./data/timezones/pdt.mjs")
	expectImports(t, `{"#aaa/": "./data/timezones/", "#a/": "./data/timezones/"}`, "#a/timezones/pdt.mjs", none(),
		"./data/timezones/timezones/pdt.mjs")
	expectImports(t, `{"#a": "./dist/index.js"}`, "#a", none(), "./dist/index.js")
	expectImports(t, `{"#a/": "./"}`, "#a", none())
	expectImports(t, `{"#a/": "./dist/", "#a/index.js": "./dist/a.js"}`, "#a/index.js", none(), "./dist/a.js")
	expectImports(t, `{"#a": "b"}`, "#a", none(), "b")
	expectImports(t, `{"#a/": "b/"}`, "#a/index", none(), "b/index")
	expectImports(t, `{"#a/": "/user/a/"}`, "#a/index", none(), "/user/a/index")
	expectImports(t, `{"#a?q=a#hashishere": "b#anotherhashishere"}`, "#a?q=a#hashishere", none(),
		"b#anotherhashishere")
	expectImports(t, `{"#a/": "../node_modules/"}`, "#a/lodash/dist/index.js", none(),
		"../node_modules/lodash/dist/index.js")
	expectImports(t,
		`{"#a": [{"browser": "./browser.js"}, {"require": "./require.js"}, {"import": ["./import.mjs", "#b/import.js"]}]}`,
		"#a", conds("import", "require"), "./require.js", "./import.mjs", "#b/import.js")
	expectImports(t,
		`{"#a": {"browser": "./index.js", "node": "./src/node/index.js", "default": "./src/index.js"}}`,
		"#a", none(), "./src/index.js")
	expectImports(t, `{"#timezones": "./data/timezones/"}`, "#timezones/pdt.mjs", none())

	expectImportsError(t, `{"/utils/": "./a/"}`, "#a/index.mjs", none(),
		"Imports field key should start with #, but got /utils/")
	expectImportsError(t,
		`{"#a": {"default": "./src/index.js", "browser": "./index.js", "node": "./src/node/index.js"}}`,
		"#a", conds("browser"),
		"Default condition should be last one")
	expectImportsError(t, `{"#timezones/": "./data/timezones"}`, "#timezones/pdt.mjs", none(),
		"Expected ./data/timezones is folder mapping")
	expectImportsError(t, `{"#a/": "./a/"}`, "/utils/index.mjs", none(),
		"Request should start with #, but got /utils/index.mjs")
	expectImportsError(t, `{"#a/": "./a/"}`, "#", conds("browser"),
		"Request should have at least 2 characters")
	expectImportsError(t, `{"#a/": "./a/"}`, "#/", conds("browser"),
		"Import field key should not start with #/, but got #/")
	expectImportsError(t, `{"#a/": "./a/"}`, "#a/", conds("browser"),
		"Only requesting file allowed")
}

func TestCheckTarget(t *testing.T) {
	bad := []string{
		"../a.js",
		"../",
		"./a/b/../../../c.js",
		"./a/b/../../../",
		"./../../c.js",
		"./../../",
		"./a/../b/../../c.js",
		"./a/../b/../../",
		"./././../",
	}
	for _, target := range bad {
		assert.Error(t, checkTarget(target), "target %q must escape", target)
	}

	good := []string{
		"./a.js",
		"./a/b/../c.js",
		"./a/../b.js",
		"./",
		"b/index",
	}
	for _, target := range good {
		assert.NoError(t, checkTarget(target), "target %q must stay inside", target)
	}
}

func TestPatternKeyCompareIsTotalOrder(t *testing.T) {
	// "./a*" beats "./ab" when both match: the pattern key wins the tie.
	assert.Negative(t, patternKeyCompare("./a*", "./ab"))
	// "./abc*" beats "./a*" when both match: the longer base wins.
	assert.Negative(t, patternKeyCompare("./abc*", "./a*"))
	assert.Positive(t, patternKeyCompare("./a*", "./abc*"))
	// Pattern keys also win ties against subpath keys.
	assert.Negative(t, patternKeyCompare("./ab*", "./ab/"))
	// Reflexive keys tie.
	assert.Zero(t, patternKeyCompare("./a*", "./a*"))
}
