package ir

// EngineVersion is the relational runtime version reported by the CLI.
const EngineVersion = "0.1.0"
