package mocks

import (
	"github.com/stretchr/testify/mock"
)

// RawFile is a mock type for the [schema.RawFile] type.
type RawFile struct {
	mock.Mock
}

// NewRawFile creates a new instance of [RawFile]. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewRawFile(t interface {
	mock.TestingT
	Cleanup(func())
},
) *RawFile {
	m := &RawFile{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *RawFile) Read(p []byte) (int, error) {
	ret := m.Called(p)

	return ret.Int(0), ret.Error(1)
}

func (m *RawFile) Write(p []byte) (int, error) {
	ret := m.Called(p)

	return ret.Int(0), ret.Error(1)
}

func (m *RawFile) Seek(offset int64, whence int) (int64, error) {
	ret := m.Called(offset, whence)

	n, _ := ret.Get(0).(int64)

	return n, ret.Error(1)
}

func (m *RawFile) Close() error {
	return m.Called().Error(0)
}

func (m *RawFile) Sync() error {
	return m.Called().Error(0)
}

func (m *RawFile) Size() (int64, error) {
	ret := m.Called()

	n, _ := ret.Get(0).(int64)

	return n, ret.Error(1)
}
