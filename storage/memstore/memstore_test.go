package memstore_test

import (
	"testing"

	"github.com/jrsteele09/go-tenant-console/storage/memstore"
	"github.com/jrsteele09/go-tenant-console/storage/storagetest"
)

func TestMemStore(t *testing.T) {
	storagetest.Run(t, memstore.New())
}
