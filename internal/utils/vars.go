package utils

const (
	DefaultDestinationFile = "alpn-boot.jar"
	DefaultMavenRepository = "https://repo.maven.apache.org/maven2"
	DefaultMappingURL      = "https://raw.githubusercontent.com/jetty-project/jetty-alpn-boot-finder/master/alpn-versions.properties"

	// ArtifactPathFormat is filled with the resolved ALPN version twice.
	ArtifactPathFormat = "/org/mortbay/jetty/alpn/alpn-boot/%s/alpn-boot-%s.jar"
)

var ToolVersion = "dev"

func ToolUserAgent() string {
	return "alpnfinder/" + ToolVersion
}
