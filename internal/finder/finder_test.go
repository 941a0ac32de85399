package finder

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/alpnfinder/internal/utils"
)

var jarBytes = []byte{0xDE, 0xAD, 0xBE, 0xEF}

// repoServer serves a mapping file at /mapping.properties and a maven layout
// for the given ALPN version. It counts artifact requests.
type repoServer struct {
	*httptest.Server
	mapping       string
	mappingStatus int
	version       string
	artifactHits  atomic.Int32
}

func newRepoServer(t *testing.T, mapping, version string) *repoServer {
	t.Helper()
	rs := &repoServer{mapping: mapping, mappingStatus: http.StatusOK, version: version}
	mux := http.NewServeMux()
	mux.HandleFunc("/mapping.properties", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(rs.mappingStatus)
		w.Write([]byte(rs.mapping))
	})
	mux.HandleFunc("/maven2/", func(w http.ResponseWriter, r *http.Request) {
		rs.artifactHits.Add(1)
		want := "/maven2/org/mortbay/jetty/alpn/alpn-boot/" + rs.version + "/alpn-boot-" + rs.version + ".jar"
		if r.URL.Path != want {
			http.NotFound(w, r)
			return
		}
		w.Write(jarBytes)
	})
	rs.Server = httptest.NewServer(mux)
	t.Cleanup(rs.Close)
	return rs
}

func (rs *repoServer) config(t *testing.T, javaVersion, dest string, opts ...utils.Option) utils.Config {
	t.Helper()
	base := []utils.Option{
		utils.WithJavaVersion(javaVersion),
		utils.WithMappingURL(rs.URL + "/mapping.properties"),
		utils.WithMavenRepository(rs.URL + "/maven2"),
		utils.WithDestinationFile(dest),
	}
	cfg, err := utils.NewConfig(append(base, opts...)...)
	require.NoError(t, err)
	return cfg
}

func TestResolve(t *testing.T) {
	rs := newRepoServer(t, "1.8.0=1.0.0\n", "1.0.0")
	f := New(rs.config(t, "1.8.0", filepath.Join(t.TempDir(), "alpn-boot.jar")))
	defer f.Close()

	version, err := f.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
}

func TestResolveUnknownKey(t *testing.T) {
	rs := newRepoServer(t, "# mapping\n1.8.0_05=8.1.0.v20141016\n1.8.0_25=8.1.2.v20141202\n", "")
	f := New(rs.config(t, "1.8.0_99", filepath.Join(t.TempDir(), "alpn-boot.jar")))
	defer f.Close()

	_, err := f.Resolve(context.Background())
	var lookupErr *utils.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "1.8.0_99", lookupErr.Key)
}

func TestResolveEmptyValueIsMissing(t *testing.T) {
	rs := newRepoServer(t, "1.8.0=\n", "")
	f := New(rs.config(t, "1.8.0", filepath.Join(t.TempDir(), "alpn-boot.jar")))
	defer f.Close()

	version, err := f.Resolve(context.Background())
	var lookupErr *utils.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Empty(t, version)
}

func TestResolveSkipsOverlongLines(t *testing.T) {
	mapping := "junk=" + strings.Repeat("x", 2*1024*1024) + "\n1.8.0=1.0.0\n"
	rs := newRepoServer(t, mapping, "1.0.0")
	f := New(rs.config(t, "1.8.0", filepath.Join(t.TempDir(), "alpn-boot.jar")))
	defer f.Close()

	version, err := f.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
}

func TestResolveHTTPStatus(t *testing.T) {
	rs := newRepoServer(t, "", "")
	rs.mappingStatus = http.StatusNotFound
	f := New(rs.config(t, "1.8.0", filepath.Join(t.TempDir(), "alpn-boot.jar")))
	defer f.Close()

	_, err := f.Resolve(context.Background())
	var statusErr *utils.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, rs.URL+"/mapping.properties", statusErr.URL)
}

// closedAddr returns a local address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestResolveNetworkError(t *testing.T) {
	cfg, err := utils.NewConfig(
		utils.WithJavaVersion("1.8.0"),
		utils.WithMappingURL("http://"+closedAddr(t)+"/mapping.properties"),
	)
	require.NoError(t, err)
	f := New(cfg)
	defer f.Close()

	_, err = f.Resolve(context.Background())
	var netErr *utils.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestResolveThroughProxy(t *testing.T) {
	var proxied atomic.Int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Host != "alpn.invalid" {
			http.Error(w, "unexpected host "+r.URL.Host, http.StatusBadGateway)
			return
		}
		proxied.Add(1)
		w.Write([]byte("1.8.0_121=8.1.11.v20170118\n"))
	}))
	defer proxy.Close()
	host, portStr, err := net.SplitHostPort(proxy.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg, err := utils.NewConfig(
		utils.WithJavaVersion("1.8.0_121"),
		utils.WithMappingURL("http://alpn.invalid/mapping.properties"),
		utils.WithProxy(host, port),
	)
	require.NoError(t, err)
	f := New(cfg)
	defer f.Close()

	version, err := f.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.1.11.v20170118", version)
	assert.EqualValues(t, 1, proxied.Load())
}

func TestResolveInsecureTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1.8.0=1.0.0\n"))
	}))
	defer server.Close()

	newFinder := func(insecure bool) *Finder {
		cfg, err := utils.NewConfig(
			utils.WithJavaVersion("1.8.0"),
			utils.WithMappingURL(server.URL+"/mapping.properties"),
			utils.WithInsecureSkipVerifyTLS(insecure),
		)
		require.NoError(t, err)
		return New(cfg)
	}

	f := newFinder(true)
	defer f.Close()
	version, err := f.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)

	strict := newFinder(false)
	defer strict.Close()
	_, err = strict.Resolve(context.Background())
	var netErr *utils.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestResolveAndDownload(t *testing.T) {
	rs := newRepoServer(t, "current=2.3.4\n", "2.3.4")
	dest := filepath.Join(t.TempDir(), "lib", "alpn", "alpn-boot.jar")
	f := New(rs.config(t, "current", dest))
	defer f.Close()

	version, err := f.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.3.4", version)
	require.NoError(t, f.Download(context.Background(), version))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, jarBytes, got)
}

func TestDownloadTwiceOverwrites(t *testing.T) {
	rs := newRepoServer(t, "current=2.3.4\n", "2.3.4")
	dest := filepath.Join(t.TempDir(), "alpn-boot.jar")
	require.NoError(t, os.WriteFile(dest, []byte("an older and much longer jar content"), 0644))
	f := New(rs.config(t, "current", dest))
	defer f.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, f.Download(context.Background(), "2.3.4"))
		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, jarBytes, got)
	}
	assert.EqualValues(t, 2, rs.artifactHits.Load())
}

func TestDownloadDestinationIsDirectory(t *testing.T) {
	rs := newRepoServer(t, "current=2.3.4\n", "2.3.4")
	dest := t.TempDir()
	f := New(rs.config(t, "current", dest))
	defer f.Close()

	version, err := f.Resolve(context.Background())
	require.NoError(t, err)

	err = f.Download(context.Background(), version)
	var invalid *utils.InvalidDestinationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, dest, invalid.Path)
	assert.Zero(t, rs.artifactHits.Load())

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownloadArtifactNotFound(t *testing.T) {
	rs := newRepoServer(t, "", "2.3.4")
	dest := filepath.Join(t.TempDir(), "alpn-boot.jar")
	f := New(rs.config(t, "current", dest))
	defer f.Close()

	err := f.Download(context.Background(), "9.9.9")
	var statusErr *utils.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.URL, "/alpn-boot/9.9.9/alpn-boot-9.9.9.jar")

	// the destination was created before the request and is left empty
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestDownloadNetworkError(t *testing.T) {
	rs := newRepoServer(t, "current=2.3.4\n", "2.3.4")
	dest := filepath.Join(t.TempDir(), "alpn-boot.jar")
	f := New(rs.config(t, "current", dest, utils.WithMavenRepository("http://"+closedAddr(t)+"/maven2")))
	defer f.Close()

	version, err := f.Resolve(context.Background())
	require.NoError(t, err)
	err = f.Download(context.Background(), version)
	var netErr *utils.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, netErr.URL, "/alpn-boot/2.3.4/alpn-boot-2.3.4.jar")

	// the destination was created before the request and is left empty
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestDownloadParentNotADirectory(t *testing.T) {
	rs := newRepoServer(t, "", "2.3.4")
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	f := New(rs.config(t, "current", filepath.Join(blocker, "alpn-boot.jar")))
	defer f.Close()

	err := f.Download(context.Background(), "2.3.4")
	var fsErr *utils.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Zero(t, rs.artifactHits.Load())
}

func TestCloseIsIdempotent(t *testing.T) {
	rs := newRepoServer(t, "1.8.0=1.0.0\n", "1.0.0")
	f := New(rs.config(t, "1.8.0", filepath.Join(t.TempDir(), "alpn-boot.jar")))

	f.Close()
	f.Close()
	_, err := f.Resolve(context.Background())
	assert.Error(t, err)
}

func TestArtifactURL(t *testing.T) {
	tests := []struct {
		repo string
		want string
	}{
		{"https://repo.maven.apache.org/maven2", "https://repo.maven.apache.org/maven2/org/mortbay/jetty/alpn/alpn-boot/8.1.11.v20170118/alpn-boot-8.1.11.v20170118.jar"},
		{"https://repo.maven.apache.org/maven2/", "https://repo.maven.apache.org/maven2/org/mortbay/jetty/alpn/alpn-boot/8.1.11.v20170118/alpn-boot-8.1.11.v20170118.jar"},
		{"s3://artifacts/maven2", "s3://artifacts/maven2/org/mortbay/jetty/alpn/alpn-boot/8.1.11.v20170118/alpn-boot-8.1.11.v20170118.jar"},
	}
	for _, tt := range tests {
		t.Run(tt.repo, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactURL(tt.repo, "8.1.11.v20170118"))
		})
	}
}
