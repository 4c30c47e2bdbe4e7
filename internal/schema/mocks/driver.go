// Package mocks provides testify mocks of the [schema] interfaces.
package mocks

import (
	"github.com/desertwitch/volguard/internal/schema"
	"github.com/stretchr/testify/mock"
)

// Driver is a mock type for the [schema.Driver] type.
type Driver struct {
	mock.Mock
}

// NewDriver creates a new instance of [Driver]. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewDriver(t interface {
	mock.TestingT
	Cleanup(func())
},
) *Driver {
	m := &Driver{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Driver) Open(path string, mode schema.OpenMode, write bool) (schema.RawFile, error) {
	ret := m.Called(path, mode, write)

	f, _ := ret.Get(0).(schema.RawFile)

	return f, ret.Error(1)
}

func (m *Driver) Delete(path string) error {
	return m.Called(path).Error(0)
}

func (m *Driver) Move(oldpath, newpath string) error {
	return m.Called(oldpath, newpath).Error(0)
}

func (m *Driver) CreateDirectory(path string) error {
	return m.Called(path).Error(0)
}

func (m *Driver) DeleteDirectory(path string) error {
	return m.Called(path).Error(0)
}

func (m *Driver) ReadDir(path string) ([]schema.FileInfo, error) {
	ret := m.Called(path)

	infos, _ := ret.Get(0).([]schema.FileInfo)

	return infos, ret.Error(1)
}

func (m *Driver) Stat(path string) (schema.FileInfo, error) {
	ret := m.Called(path)

	info, _ := ret.Get(0).(schema.FileInfo)

	return info, ret.Error(1)
}

func (m *Driver) SetAttributes(path string, attrs schema.Attributes) error {
	return m.Called(path, attrs).Error(0)
}

func (m *Driver) Format(root string, label string) error {
	return m.Called(root, label).Error(0)
}

func (m *Driver) Mount(root string) error {
	return m.Called(root).Error(0)
}

func (m *Driver) Unmount(root string) error {
	return m.Called(root).Error(0)
}

func (m *Driver) VolumeInfo(root string) (schema.VolumeInfo, error) {
	ret := m.Called(root)

	info, _ := ret.Get(0).(schema.VolumeInfo)

	return info, ret.Error(1)
}

func (m *Driver) Volumes() []string {
	ret := m.Called()

	roots, _ := ret.Get(0).([]string)

	return roots
}
