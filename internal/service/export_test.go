package service

// ImportGuard exposes the import guard to the service_test package.
type ImportGuard = importGuard
