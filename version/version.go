package version

// Name is the application name, also used as the environment variable prefix.
const Name = "csrgen"

// Description is shown at the top of the help output.
const Description = "Generate a private key and certificate signing request with OpenSSL and archive them"

// Version is set during build to the current git commitish.
var Version = "development" //nolint:gochecknoglobals
