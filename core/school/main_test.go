package school_test

import (
	"os"
	"testing"

	"github.com/trezcool/shule/core"
	appfs "github.com/trezcool/shule/fs"
)

func TestMain(m *testing.M) {
	core.SetMailTemplatesFS(appfs.FS)
	os.Exit(m.Run())
}
