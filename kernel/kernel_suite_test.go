package kernel_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestKernelProperties(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Kernel Properties Suite")
}
