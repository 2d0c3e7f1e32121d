/*
Package iso7816 implements the ISO/IEC 7816-4 framing used to talk to
contactless cards through a PC/SC reader.

It provides Command and Response APDU structures, Status Word analysis, and a
Client that resolves the T=0 transport procedures (61XX, 6CXX) so callers see
one Trace per logical command.

# DESFire wrapping

DESFire cards speak a native command set ([CMD][DATA...] answered by
[STATUS][DATA...]). PC/SC readers carry it wrapped in the proprietary class
0x90:

	90 6A 00 00 00          GetApplicationIDs
	F4 80 70 91 00          one AID, DESFire status 00 in SW2

The wrapping helpers live in package desfire; this package only provides the
class, instruction and status word building blocks.

# Usage

	cls, _ := iso7816.NewClass(iso7816.ClassDESFire)
	cmd := iso7816.NewCommandAPDU(cls, iso7816.NewProprietaryInstruction(0x6A), 0, 0, nil, iso7816.MaxShortLe)

	trace, err := iso7816.NewClient(card).Send(cmd)
	if err != nil {
	    return err
	}
	fmt.Println(trace.Last().Response.Status.Verbose())
*/
package iso7816
