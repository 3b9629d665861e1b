package neograph

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"pseudoenzymes-backend/logging"
	"strconv"
	"testing"
	"time"
)

func TestURL(t *testing.T) {
	c := Neo4jConfig{Host: "graph.local", Port: 7687}
	assert.Equal(t, "neo4j://graph.local:7687", c.URL())
}

func TestExecute(t *testing.T) {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))

	cfg := GenerateTestConfig()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(cfg.Neo4j.Host, strconv.Itoa(cfg.Neo4j.Port)), 200*time.Millisecond)
	if err != nil {
		t.Skipf("no neo4j at %s", cfg.Neo4j.URL())
	}
	_ = conn.Close()

	client, err := New(cfg)
	require.Nil(t, err)
	defer func() {
		assert.Nil(t, client.Close())
	}()

	_, err = client.Execute("MERGE (n:ConnectivityProbe {id: $id}) DELETE n", map[string]interface{}{"id": "probe"})
	assert.Nil(t, err)
}
