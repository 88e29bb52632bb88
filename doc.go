// File: lixenwraith/props/doc.go

// Package props resolves typed property values from prioritized, context-sensitive sources:
// process overrides, environment variables, property documents and in-code defaults.
//
// Features:
//   - Layered resources (properties, TOML, YAML, JSON, .env) ordered by priority
//   - Context variants: with context "dev", %dev.server.port shadows server.port
//   - ${name}, ${ENV:NAME} and ${SYS:name} references with cycle detection
//   - Includes: a document can pull in further documents by key
//   - Converters for scalars, arrays, enums, containers and custom types
//   - Struct tags, code-built tables and declarative manifests
//
// Quick Start:
//
//	type Server struct {
//	    Host  string        `prop:"server.host" default:"localhost"`
//	    Port  int           `prop:"server.port" required:"true"`
//	    Hosts []string      `prop:"server.peers"`
//	    Wait  time.Duration `prop:"server.wait" default:"5s"`
//	}
//
//	var s Server
//	loader, err := props.NewBuilder().
//	    WithContext("dev").
//	    WithResource(props.SourceFile, 1, "app.properties").
//	    WithResource(props.SourceEnv, 2, "APP_").
//	    WithArgs(os.Args[1:]).
//	    BuildAndPopulate(&s)
//
// Resolution order for one property (first hit wins):
//  1. Process overrides (SetOverride, --key=value arguments)
//  2. The property's own resources, highest priority first, context variant before plain key
//  3. The structure-level resources
//  4. The literal default
//
// Thread Safety:
// Registries are immutable and Overrides is guarded by a read-write mutex.
// A Loader serializes its resolution calls; a Store is call-scoped and must not be shared.
package props
