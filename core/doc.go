// Package core contains the wallet session coordinator, the network registry
// and the integration that keeps them consistent. Connector implementations
// and storage backends depend on this package; core must not depend on them.
package core
