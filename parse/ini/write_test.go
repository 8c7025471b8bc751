package ini

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestWriteLayout(t *testing.T) {
	convey.Convey("sections emit sorted with a separating blank line", t, func() {
		config := New()
		convey.So(config.ParseString("[b]\n(int) y = 2\n[a]\n(int) x = 1"), convey.ShouldBeNil)
		out, err := config.Write()
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "[a]\n(int) x = 1\n\n[b]\n(int) y = 2\n\n")
	})

	convey.Convey("nested sections indent headers and settings", t, func() {
		config := New()
		convey.So(config.ParseString("[a]\n    [b]\n    x = 1"), convey.ShouldBeNil)
		out, err := config.Write()
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "[a]\n    [b]\n    x = 1\n\n")
	})

	convey.Convey("settings come before subsections inside a section", t, func() {
		config := New()
		convey.So(config.ParseString("[a]\n    [b]\n    x = 1\n[a]\n    y = 2"), convey.ShouldBeNil)
		out, err := config.Write()
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "[a]\ny = 2\n    [b]\n    x = 1\n\n")
	})
}

func TestWriteWrapping(t *testing.T) {
	convey.Convey("long joined values wrap inside the width budget", t, func() {
		items := make([]any, 30)
		for i := range items {
			items[i] = fmt.Sprintf("item%02d", i)
		}
		config := New(WithJoin(", "), WithSource(map[string]any{"letters": items}))
		out, err := config.Write()
		convey.So(err, convey.ShouldBeNil)

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		convey.So(len(lines), convey.ShouldBeGreaterThan, 1)
		for _, line := range lines {
			convey.So(len(line), convey.ShouldBeLessThanOrEqualTo, 120)
		}

		convey.Convey("and the wrapped form re-parses to the same value", func() {
			reparsed := New(WithJoin(", "))
			convey.So(reparsed.ParseString(out), convey.ShouldBeNil)
			convey.So(reparsed.Get("letters", nil), convey.ShouldResemble, items)
		})
	})
}

func TestWriteRoundTrip(t *testing.T) {
	convey.Convey("every supported leaf kind survives write then parse", t, func() {
		source := map[string]any{
			"types": map[string]any{
				"flag":   true,
				"count":  int64(7),
				"ratio":  1.5,
				"label":  "plain",
				"wave":   complex(3, 4),
				"raw":    []byte("hi"),
				"buf":    ByteArray("yo"),
				"steps":  Range{Start: 2, Stop: 10, Step: 3},
				"pair":   Tuple{"a", "b"},
				"ids":    Set{int64(1), int64(2)},
				"frozen": FrozenSet{"z"},
				"names":  []any{"p", "q"},
			},
		}
		config := New(WithSource(source))
		out, err := config.Write()
		convey.So(err, convey.ShouldBeNil)

		reparsed := New()
		convey.So(reparsed.ParseString(out), convey.ShouldBeNil)
		convey.So(reparsed.Get("types:flag", nil), convey.ShouldEqual, true)
		convey.So(reparsed.Get("types:count", nil), convey.ShouldEqual, int64(7))
		convey.So(reparsed.Get("types:ratio", nil), convey.ShouldEqual, 1.5)
		convey.So(reparsed.Get("types:label", nil), convey.ShouldEqual, "plain")
		convey.So(reparsed.Get("types:wave", nil), convey.ShouldResemble, complex(3, 4))
		convey.So(reparsed.Get("types:raw", nil), convey.ShouldResemble, []byte("hi"))
		convey.So(reparsed.Get("types:buf", nil), convey.ShouldResemble, ByteArray("yo"))
		convey.So(reparsed.Get("types:steps", nil), convey.ShouldResemble, Range{Start: 2, Stop: 10, Step: 3})
		convey.So(reparsed.Get("types:pair", nil), convey.ShouldResemble, Tuple{"a", "b"})
		convey.So(reparsed.Get("types:ids", nil), convey.ShouldResemble, Set{int64(1), int64(2)})
		convey.So(reparsed.Get("types:frozen", nil), convey.ShouldResemble, FrozenSet{"z"})
		convey.So(reparsed.Get("types:names", nil), convey.ShouldResemble, []any{"p", "q"})
	})

	convey.Convey("an unrepresentable value surfaces a SerializeError", t, func() {
		config := New(WithSource(map[string]any{"bad": struct{}{}}))
		_, err := config.Write()
		var serr *SerializeError
		convey.So(errors.As(err, &serr), convey.ShouldBeTrue)
	})
}

func TestWriteDestinations(t *testing.T) {
	convey.Convey("WriteTo and WriteFile emit the same text as Write", t, func() {
		config := New()
		convey.So(config.ParseString("[app]\nname = demo"), convey.ShouldBeNil)
		want, err := config.Write()
		convey.So(err, convey.ShouldBeNil)

		var buf bytes.Buffer
		n, err := config.WriteTo(&buf)
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, int64(len(want)))
		convey.So(buf.String(), convey.ShouldEqual, want)

		path := filepath.Join(t.TempDir(), "out.ini")
		convey.So(config.WriteFile(path), convey.ShouldBeNil)
		data, err := os.ReadFile(path)
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(data), convey.ShouldEqual, want)
	})
}
