package repository

import "autofill-workbench/internal/domain"

// Mock logger used by repository package tests.
type MockLogger struct{}

func NewMockLogger() domain.Logger {
	return &MockLogger{}
}

func (l *MockLogger) Info(msg string, fields ...interface{}) {}
func (l *MockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockLogger) Debug(msg string, fields ...interface{}) {}
func (l *MockLogger) Warn(msg string, fields ...interface{}) {}
func (l *MockLogger) With(fields ...interface{}) domain.Logger { return l }
