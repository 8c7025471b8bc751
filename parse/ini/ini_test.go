package ini

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSectionAndSetting(t *testing.T) {
	convey.Convey("section with a plain setting", t, func() {
		config := New()
		err := config.ParseString("[hello]\na = 10")
		convey.So(err, convey.ShouldBeNil)
		convey.So(config.Equal(map[string]any{
			"hello": map[string]any{"a": "10"},
		}), convey.ShouldBeTrue)
	})
}

func TestSectionMergeAcrossParses(t *testing.T) {
	convey.Convey("re-opening a section merges instead of replacing", t, func() {
		config := New()
		convey.So(config.ParseString("[section]\na = 10"), convey.ShouldBeNil)
		convey.So(config.ParseString("[section]\nb = 10"), convey.ShouldBeNil)
		convey.So(config.Equal(map[string]any{
			"section": map[string]any{"a": "10", "b": "10"},
		}), convey.ShouldBeTrue)
	})
}

func TestEmptySection(t *testing.T) {
	convey.Convey("a lone header opens an empty section", t, func() {
		config := New()
		convey.So(config.ParseString("[WHAT SHALL HAPPEN]"), convey.ShouldBeNil)
		convey.So(config.Equal(map[string]any{
			"WHAT SHALL HAPPEN": map[string]any{},
		}), convey.ShouldBeTrue)
	})
}

func TestNestedSections(t *testing.T) {
	convey.Convey("indentation nests sections", t, func() {
		src := "[a]\n    [b]\n    x = 1"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.Equal(map[string]any{
			"a": map[string]any{
				"b": map[string]any{"x": "1"},
			},
		}), convey.ShouldBeTrue)
	})

	convey.Convey("tabs expand to the configured indent size", t, func() {
		src := "[a]\n\t[b]\n\tx = 1"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.GetString("a:b:x", ""), convey.ShouldEqual, "1")
	})
}

func TestContinuationLines(t *testing.T) {
	convey.Convey("deeper-indented lines extend the pending setting", t, func() {
		src := "a = first\n    second\n    third"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, "first\nsecond\nthird")
	})

	convey.Convey("the configured join string separates the pieces", t, func() {
		config := New(WithJoin(", "))
		convey.So(config.ParseString("a = one\n    two"), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, "one, two")
	})

	convey.Convey("continuation inside a section", t, func() {
		src := "[s]\nmessage = hello\n        world"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.GetString("s:message", ""), convey.ShouldEqual, "hello\nworld")
	})
}

func TestBareKey(t *testing.T) {
	convey.Convey("a bare key receives the configured default", t, func() {
		config := New()
		convey.So(config.ParseString("[flags]\nverbose"), convey.ShouldBeNil)
		convey.So(config.Get("flags:verbose", nil), convey.ShouldEqual, true)
	})

	convey.Convey("the default value is configurable", t, func() {
		config := New(WithDefault("on"))
		convey.So(config.ParseString("verbose"), convey.ShouldBeNil)
		convey.So(config.Get("verbose", nil), convey.ShouldEqual, "on")
	})
}

func TestComments(t *testing.T) {
	convey.Convey("comments run from # or ; to end of line", t, func() {
		src := "a = 10 # ten\nb = 20 ; twenty"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, "10")
		convey.So(config.Get("b", nil), convey.ShouldEqual, "20")
	})

	convey.Convey("a # inside quotes is not a comment", t, func() {
		config := New()
		convey.So(config.ParseString(`a = "value # here" # trailing`), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, "value # here")
	})

	convey.Convey("an escaped quote does not close its pair", t, func() {
		config := New()
		convey.So(config.ParseString(`a = "it\"s # quoted" ; trailing`), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, `it\"s # quoted`)
	})

	convey.Convey("a line reduced to nothing is skipped", t, func() {
		config := New()
		convey.So(config.ParseString("# heading only\n; more\na = 1"), convey.ShouldBeNil)
		convey.So(config.Len(), convey.ShouldEqual, 1)
	})
}

func TestQuoteStripping(t *testing.T) {
	convey.Convey("one bounding quote pair is removed from untyped values", t, func() {
		config := New()
		convey.So(config.ParseString("a = 'hello'\nb = \"world\"\nc = ''quoted''"), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, "hello")
		convey.So(config.Get("b", nil), convey.ShouldEqual, "world")
		convey.So(config.Get("c", nil), convey.ShouldEqual, "'quoted'")
	})

	convey.Convey("a str annotation behaves like no annotation", t, func() {
		config := New()
		convey.So(config.ParseString("(str) a = 'hello'"), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, "hello")
	})
}

func TestInterpolation(t *testing.T) {
	convey.Convey("references resolve against already-parsed values", t, func() {
		src := "[general]\nname = Kieran\n[personal]\nfull = {general:name} Booth"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.GetString("personal:full", ""), convey.ShouldEqual, "Kieran Booth")
	})

	convey.Convey("escaped braces stay literal with their backslashes", t, func() {
		config := New()
		convey.So(config.ParseString(`a = \{not:aref\}`), convey.ShouldBeNil)
		convey.So(config.Get("a", nil), convey.ShouldEqual, `\{not:aref\}`)
	})

	convey.Convey("an undefined reference aborts the parse", t, func() {
		config := New()
		err := config.ParseString("a = {missing:key}")
		convey.So(err, convey.ShouldNotBeNil)
		var lookupErr *LookupError
		convey.So(errors.As(err, &lookupErr), convey.ShouldBeTrue)
	})

	convey.Convey("continuation fragments interpolate independently", t, func() {
		src := "name = Martha\ngreeting = hello\n    {name}"
		config := New()
		convey.So(config.ParseString(src), convey.ShouldBeNil)
		convey.So(config.Get("greeting", nil), convey.ShouldEqual, "hello\nMartha")
	})
}

func TestGet(t *testing.T) {
	convey.Convey("colon paths traverse the tree with a default", t, func() {
		config := New()
		convey.So(config.ParseString("[a]\n    [b]\n    c = found"), convey.ShouldBeNil)

		convey.So(config.Get("a:b:c", "fallback"), convey.ShouldEqual, "found")
		convey.So(config.Get("a:b:missing", "fallback"), convey.ShouldEqual, "fallback")
		convey.So(config.Get("a:missing:c", "fallback"), convey.ShouldEqual, "fallback")
		convey.So(config.Get("missing:b:c", "fallback"), convey.ShouldEqual, "fallback")
	})

	convey.Convey("plain keys look up the top level", t, func() {
		config := New()
		convey.So(config.ParseString("a = 1"), convey.ShouldBeNil)
		convey.So(config.Get("a", "fallback"), convey.ShouldEqual, "1")
		convey.So(config.Get("z", "fallback"), convey.ShouldEqual, "fallback")
	})

	convey.Convey("typed helpers narrow the result", t, func() {
		config := New()
		convey.So(config.ParseString("(int) port = 8080\nhost = localhost"), convey.ShouldBeNil)
		convey.So(config.GetInt("port", 0), convey.ShouldEqual, 8080)
		convey.So(config.GetInt("host", 99), convey.ShouldEqual, 99)
		convey.So(config.GetString("host", ""), convey.ShouldEqual, "localhost")
	})
}

func TestTreeOperations(t *testing.T) {
	convey.Convey("WithSource seeds the tree from a plain map", t, func() {
		config := New(WithSource(map[string]any{
			"server": map[string]any{"host": "localhost"},
		}))
		convey.So(config.GetString("server:host", ""), convey.ShouldEqual, "localhost")
	})

	convey.Convey("Merge deep-merges nested maps", t, func() {
		config := New()
		convey.So(config.ParseString("[server]\nhost = localhost"), convey.ShouldBeNil)
		convey.So(config.Merge(map[string]any{
			"server": map[string]any{"port": int64(8080)},
		}), convey.ShouldBeNil)
		convey.So(config.Equal(map[string]any{
			"server": map[string]any{"host": "localhost", "port": int64(8080)},
		}), convey.ShouldBeTrue)
	})

	convey.Convey("Keys are sorted and ToMap round-trips structure", t, func() {
		config := New()
		convey.So(config.ParseString("b = 2\na = 1"), convey.ShouldBeNil)
		convey.So(config.Keys(), convey.ShouldResemble, []string{"a", "b"})
		convey.So(config.ToMap(), convey.ShouldResemble, map[string]any{"a": "1", "b": "2"})
	})
}

func TestTypeCastErrorDetails(t *testing.T) {
	convey.Convey("a failed cast carries line, name and raw value", t, func() {
		config := New()
		err := config.ParseString("fine = 1\n(int) broken = not-a-number")
		convey.So(err, convey.ShouldNotBeNil)

		var castErr *TypeCastError
		convey.So(errors.As(err, &castErr), convey.ShouldBeTrue)
		convey.So(castErr.Line, convey.ShouldEqual, 2)
		convey.So(castErr.Name, convey.ShouldEqual, "broken")
		convey.So(castErr.Value, convey.ShouldEqual, "not-a-number")
	})
}
