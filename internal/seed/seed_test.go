package seed

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/malipo/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalogdomain.Service{}))
	return db
}

func TestEnsureDefaultServicesSeedsEmptyCatalog(t *testing.T) {
	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	require.NoError(t, EnsureDefaultServices(db, node))

	var count int64
	require.NoError(t, db.Model(&catalogdomain.Service{}).Count(&count).Error)
	assert.EqualValues(t, len(defaultServices), count)

	// A second run must not duplicate the catalog.
	require.NoError(t, EnsureDefaultServices(db, node))
	require.NoError(t, db.Model(&catalogdomain.Service{}).Count(&count).Error)
	assert.EqualValues(t, len(defaultServices), count)
}

func TestEnsureDefaultServicesLeavesExistingCatalog(t *testing.T) {
	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	existing := catalogdomain.Service{ID: node.Generate(), Name: "Custom Plan", Price: 99}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, EnsureDefaultServices(db, node))

	var services []catalogdomain.Service
	require.NoError(t, db.Find(&services).Error)
	require.Len(t, services, 1)
	assert.Equal(t, "Custom Plan", services[0].Name)
}
