// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"fmt"
	"io"
	"testing"

	"go.astrophena.name/base/testutil"
)

func TestLogfWrite(t *testing.T) {
	var got []string
	logf := Logf(func(format string, args ...any) {
		got = append(got, fmt.Sprintf(format, args...))
	})

	var w io.Writer = logf
	for _, s := range []string{"hello\n", "\n", "no newline"} {
		n, err := w.Write([]byte(s))
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEqual(t, n, len(s))
	}

	testutil.AssertEqual(t, got, []string{"hello", "no newline"})
}

func TestNilLogfWrite(t *testing.T) {
	var logf Logf
	n, err := logf.Write([]byte("dropped"))
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, n, 7)
}
