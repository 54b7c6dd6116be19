package version

// Current is the release version reported by `greeter version`.
const Current = "0.1.0"
