package contractkit

// Version is the discriminator tag carried in a contract's "version" field.
type Version string

const (
	V1 Version = "1.0"
	V2 Version = "2.0"
)

// ConnectionType enumerates the supported database engines.
type ConnectionType string

const (
	ConnectionMySQL      ConnectionType = "mysql"
	ConnectionPostgreSQL ConnectionType = "postgresql"
	ConnectionSQLite     ConnectionType = "sqlite"
	ConnectionOracle     ConnectionType = "oracle"
)

// DefaultConnectionType applies when connection_type is absent.
const DefaultConnectionType = ConnectionMySQL

// ConnectionTypes lists the allowed connection types in declaration order.
func ConnectionTypes() []ConnectionType {
	return []ConnectionType{ConnectionMySQL, ConnectionPostgreSQL, ConnectionSQLite, ConnectionOracle}
}

// WritePattern enumerates how a job writes into its target.
type WritePattern string

const (
	PatternAppend    WritePattern = "append"
	PatternOverwrite WritePattern = "overwrite"
	PatternMerge     WritePattern = "merge"
)

// DefaultWritePattern applies when pattern is absent.
const DefaultWritePattern = PatternOverwrite

// WritePatterns lists the allowed write patterns in declaration order.
func WritePatterns() []WritePattern {
	return []WritePattern{PatternAppend, PatternOverwrite, PatternMerge}
}

// Source describes the table a job reads from.
type Source struct {
	TableName   string `json:"table_name" yaml:"table_name"`
	Database    string `json:"database" yaml:"database"`
	Incremental bool   `json:"incremental" yaml:"incremental"`
	// IncrementalColumn is set if and only if Incremental is true.
	IncrementalColumn *string `json:"incremental_column,omitempty" yaml:"incremental_column,omitempty"`
}

// Target describes the table a job writes into.
type Target struct {
	TargetTableName string `json:"target_table_name" yaml:"target_table_name"`
	TargetDatabase  string `json:"target_database" yaml:"target_database"`
}

// Connection holds the connection string and engine of the job.
type Connection struct {
	ConnectionString string         `json:"connection_string" yaml:"connection_string"`
	ConnectionType   ConnectionType `json:"connection_type" yaml:"connection_type"`
}

// DataPatterns holds write-pattern metadata.
type DataPatterns struct {
	Pattern           WritePattern `json:"pattern" yaml:"pattern"`
	SchemaEnforcement bool         `json:"schemaEnforcement" yaml:"schemaEnforcement"`
}

// Contract is the sum type over the known schema variants. It is sealed:
// only *ContractV1 and *ContractV2 implement it.
//
// Contracts are produced by Registry.Parse or Migrator.Migrate and must be
// treated as read-only; migration returns new instances instead of mutating.
type Contract interface {
	SchemaVersion() Version
	isContract()
}

// ContractV1 is the closed 1.0 schema: no fields beyond those listed.
type ContractV1 struct {
	Version      Version      `json:"version" yaml:"version"`
	Source       Source       `json:"source" yaml:"source"`
	Target       Target       `json:"target" yaml:"target"`
	Connection   Connection   `json:"connection" yaml:"connection"`
	DataPatterns DataPatterns `json:"data_patterns" yaml:"data_patterns"`
	Trigger      string       `json:"trigger" yaml:"trigger"`
}

func (*ContractV1) SchemaVersion() Version { return V1 }
func (*ContractV1) isContract()            {}

// ContractV2 is the open 2.0 schema. It adds an optional description and
// tolerates (drops) unknown top-level fields.
type ContractV2 struct {
	Version      Version      `json:"version" yaml:"version"`
	Source       Source       `json:"source" yaml:"source"`
	Target       Target       `json:"target" yaml:"target"`
	Connection   Connection   `json:"connection" yaml:"connection"`
	DataPatterns DataPatterns `json:"data_patterns" yaml:"data_patterns"`
	Trigger      string       `json:"trigger" yaml:"trigger"`
	Description  *string      `json:"description,omitempty" yaml:"description,omitempty"`
}

func (*ContractV2) SchemaVersion() Version { return V2 }
func (*ContractV2) isContract()            {}

// isNil reports whether c is nil or a nil variant pointer.
func isNil(c Contract) bool {
	switch x := c.(type) {
	case nil:
		return true
	case *ContractV1:
		return x == nil
	case *ContractV2:
		return x == nil
	}
	return false
}

// Equal compares two contracts field by field. Contracts of different
// variants are never equal.
func Equal(a, b Contract) bool {
	switch x := a.(type) {
	case *ContractV1:
		y, ok := b.(*ContractV1)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		return x.Version == y.Version &&
			equalSource(x.Source, y.Source) &&
			x.Target == y.Target &&
			x.Connection == y.Connection &&
			x.DataPatterns == y.DataPatterns &&
			x.Trigger == y.Trigger
	case *ContractV2:
		y, ok := b.(*ContractV2)
		if !ok || x == nil || y == nil {
			return ok && x == y
		}
		return x.Version == y.Version &&
			equalSource(x.Source, y.Source) &&
			x.Target == y.Target &&
			x.Connection == y.Connection &&
			x.DataPatterns == y.DataPatterns &&
			x.Trigger == y.Trigger &&
			equalStrPtr(x.Description, y.Description)
	}
	return false
}

func equalSource(a, b Source) bool {
	return a.TableName == b.TableName &&
		a.Database == b.Database &&
		a.Incremental == b.Incremental &&
		equalStrPtr(a.IncrementalColumn, b.IncrementalColumn)
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
