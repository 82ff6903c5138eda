package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	o := &Output{Out: &out, Err: &errOut}

	o.Info("plain")
	o.Infof("count %d", 3)
	o.Success("done")
	o.Successf("removed %d", 2)
	o.Warn("careful")
	o.Warnf("seed %d", 7)
	o.Error("open corpus", errors.New("boom"))
	o.Error("no corpus", nil)

	assert.Equal(t, "plain\ncount 3\n✓ done\n✓ removed 2\n", out.String())
	assert.Equal(t, "warning: careful\nwarning: seed 7\nerror: open corpus: boom\nerror: no corpus\n", errOut.String())
}
